package model

// State は距離学習モデルの学習状態を表す
//
// 計量 M と変換 L のどちらを保持しているかで区別する。M = LᵀL の
// 双対性により、どちらか一方があればもう一方は導出できる。
type State int

const (
	// Unfit はモデルが未学習の状態
	Unfit State = iota
	// HasMetric は計量 M のみを保持している状態
	HasMetric
	// HasTransform は変換 L のみを保持している状態
	HasTransform
	// Both は M と L の両方を保持している状態（導出済み）
	Both
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case Unfit:
		return "unfit"
	case HasMetric:
		return "has_metric"
	case HasTransform:
		return "has_transform"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// IsFitted はモデルが学習済みかどうかを返す
func (s State) IsFitted() bool {
	return s != Unfit
}

// HasMetric は計量 M が保持されているかどうかを返す
func (s State) HasMetric() bool {
	return s == HasMetric || s == Both
}

// HasTransform は変換 L が保持されているかどうかを返す
func (s State) HasTransform() bool {
	return s == HasTransform || s == Both
}
