package usecase

// MetricsRecorder は暗号操作の結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordEnvelopeOperation(operation, result string)
	RecordSettingsFallback(field string)
}

type noopRecorder struct{}

func (noopRecorder) RecordEnvelopeOperation(operation, result string) {}
func (noopRecorder) RecordSettingsFallback(field string)              {}

func recorderOrNoop(r MetricsRecorder) MetricsRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
