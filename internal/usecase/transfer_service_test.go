package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-envelope/internal/domain"
)

type staticPolicy bool

func (p staticPolicy) AllowShare(ctx context.Context) bool { return bool(p) }

func testItem() domain.ItemRecord {
	return domain.ItemRecord{
		ID:            7,
		Name:          "Apples",
		Price:         1.25,
		Quantity:      40,
		SupplierName:  "Orchard Co",
		SupplierEmail: "orders@orchard.example",
		SupplierPhone: "+1 555 0100",
		Source:        "manual",
	}
}

func TestTransferService_ExportImport(t *testing.T) {
	ctx := context.Background()
	envelope, _ := newTestEnvelope(t)
	service := NewTransferService(envelope, staticPolicy(true))

	token, err := service.ExportItem(ctx, testItem())
	require.NoError(t, err)

	got, err := service.ImportItem(ctx, token)
	require.NoError(t, err)

	want := testItem()
	want.Source = domain.ItemSourceFile
	assert.Equal(t, &want, got)
}

func TestTransferService_ExportRespectsAllowShare(t *testing.T) {
	ctx := context.Background()
	envelope, _ := newTestEnvelope(t)
	settings := NewSettingsService(newMockKeyValueStore(), envelope, nil)
	service := NewTransferService(envelope, settings)

	_, err := service.ExportItem(ctx, testItem())
	require.NoError(t, err, "sharing is allowed by default")

	require.NoError(t, settings.UpdateAllowShare(ctx, false))
	token, err := service.ExportItem(ctx, testItem())
	assert.ErrorIs(t, err, domain.ErrSharingDisabled)
	assert.Empty(t, token)
}

func TestTransferService_ImportFailures(t *testing.T) {
	ctx := context.Background()
	envelope, _ := newTestEnvelope(t)
	service := NewTransferService(envelope, staticPolicy(true))

	notJSON, err := envelope.Encrypt(ctx, "definitely not json")
	require.NoError(t, err)

	wrongShape, err := envelope.EncryptBytes(ctx, mustJSON(t, map[string]any{"quantity": "many"}))
	require.NoError(t, err)

	null, err := envelope.EncryptBytes(ctx, []byte("null"))
	require.NoError(t, err)

	other, _ := newTestEnvelope(t)
	foreign, err := NewTransferService(other, staticPolicy(true)).ExportItem(ctx, testItem())
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "malformed", token: "!!", wantErr: domain.ErrMalformedToken},
		{name: "foreign key", token: foreign, wantErr: domain.ErrAuthenticationFailed},
		{name: "not json", token: notJSON, wantErr: domain.ErrParseFailed},
		{name: "wrong field type", token: wrongShape, wantErr: domain.ErrParseFailed},
		{name: "null payload", token: null, wantErr: domain.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := service.ImportItem(ctx, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, item)
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
