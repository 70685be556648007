package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。教師なしの手法では y は nil でよい
	Fit(X, y mat.Matrix) error
}

// Projector はデータを学習済みの空間へ射影するインターフェース
type Projector interface {
	// Transform は X を射影する。X が nil の場合は訓練データを射影する
	Transform(X mat.Matrix) (*mat.Dense, error)
}
