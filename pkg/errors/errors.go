// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// scikit-learnの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("DML-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、IndefiniteMetricWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// IndefiniteMetricWarning は分解対象の計量行列が半正定値でなく、
// 負の固有値をゼロに切り詰めた場合に発生する警告です。
type IndefiniteMetricWarning struct {
	Op            string
	Clipped       int     // 切り詰めた固有値の数
	MinEigenvalue float64 // 最小固有値
}

func (w *IndefiniteMetricWarning) Error() string {
	return fmt.Sprintf("%s: metric is not positive semi-definite, clipped %d eigenvalue(s) (min %.6g)",
		w.Op, w.Clipped, w.MinEigenvalue)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *IndefiniteMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Int("clipped", w.Clipped).
		Float64("min_eigenvalue", w.MinEigenvalue).
		Str("type", "IndefiniteMetricWarning")
}

// NewIndefiniteMetricWarning は新しいIndefiniteMetricWarningを作成します。
func NewIndefiniteMetricWarning(op string, clipped int, minEigenvalue float64) *IndefiniteMetricWarning {
	return &IndefiniteMetricWarning{Op: op, Clipped: clipped, MinEigenvalue: minEigenvalue}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Metric` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("dml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ErrInvalidInput は全てのInvalidInputErrorが一致する番兵エラーです。
//
//	if errors.Is(err, errors.ErrInvalidInput) { ... }
var ErrInvalidInput = New("invalid input")

// InvalidInputError は `Transform` に渡されたデータの形状・型・有限性の検証、
// またはカーネル計算が失敗した場合のエラーです。呼び出し元へそのまま返され、暗黙に補正されることはありません。
type InvalidInputError struct {
	Op     string
	Reason string
	Err    error // 原因（DimensionError など）
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dml: %s: invalid input: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("dml: %s: invalid input: %s", e.Op, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// Is は ErrInvalidInput との比較を可能にします。
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "InvalidInputError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewInvalidInputError は新しいInvalidInputErrorを作成し、スタックトレースを付与します。
func NewInvalidInputError(op, reason string, cause error) error {
	err := &InvalidInputError{Op: op, Reason: reason, Err: cause}
	return errors.WithStack(err)
}

// MalformedMatrixError は分解対象の行列が正方でない・対称でない・非有限値を含むなど、
// 呼び出し側の前提条件違反を表します。ユーザーが回復可能なエラーではありません。
type MalformedMatrixError struct {
	Op     string
	Rows   int
	Cols   int
	Reason string
}

func (e *MalformedMatrixError) Error() string {
	return fmt.Sprintf("dml: %s: malformed %dx%d matrix: %s", e.Op, e.Rows, e.Cols, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MalformedMatrixError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("rows", e.Rows).
		Int("cols", e.Cols).
		Str("reason", e.Reason).
		Str("type", "MalformedMatrixError")
}

// NewMalformedMatrixError は新しいMalformedMatrixErrorを作成し、スタックトレースを付与します。
func NewMalformedMatrixError(op string, rows, cols int, reason string) error {
	err := &MalformedMatrixError{Op: op, Rows: rows, Cols: cols, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("dml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は設定パラメータの検証に失敗した場合のエラーです。
// カーネル設定などは構成時にここで拒否されます。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// NumericalInstabilityError は数値計算の入出力に NaN や Inf が含まれる場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "transform", "metric"）
	Values    []float64 // 問題のある値
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("dml: non-finite values detected in %s. Values: [%s]", e.Operation, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{Operation: operation, Values: values}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrFactorization は固有値分解まで含めて行列分解が収束しなかった場合のエラーです。
	ErrFactorization = New("matrix factorization failed")
)
