package domain

// ItemSourceFile はファイルから取り込んだ品目を表すソース値。
const ItemSourceFile = "file"

// ItemRecord は暗号化ファイルとしてエクスポート・インポートされる品目を表す。
type ItemRecord struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	SupplierName  string  `json:"supplierName"`
	SupplierEmail string  `json:"supplierEmail"`
	SupplierPhone string  `json:"supplierPhone"`
	Source        string  `json:"source"`
}
