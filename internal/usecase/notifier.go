package usecase

// 注文イベントの通知先（管理者向けリアルタイム配信）。
// 配信はベストエフォート。失敗しても注文処理は失敗させない。
type OrderNotifier interface {
	NotifyNewOrder(order OrderOutput)
	NotifyStatusUpdated(order OrderOutput)
}

// 通知先が未設定のときに使う
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewOrder(order OrderOutput)      {}
func (NoopNotifier) NotifyStatusUpdated(order OrderOutput) {}
