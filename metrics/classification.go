package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// ConfusionMatrix は二値分類の混同行列
type ConfusionMatrix struct {
	TN int // 真陰性
	FP int // 偽陽性
	FN int // 偽陰性
	TP int // 真陽性
}

// Total はサンプル数を返す
func (c ConfusionMatrix) Total() int {
	return c.TN + c.FP + c.FN + c.TP
}

// Report は二値分類の評価指標をまとめたもの
type Report struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Confusion ConfusionMatrix
}

// checkPair は入力ベクトルの長さを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は正解率を計算する（多クラスのラベルも受け付ける）
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix は列ベクトル（n×1行列）形式の入力に対して正解率を計算する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, err := columnVector("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yp, err := columnVector("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(yt, yp)
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// NewConfusionMatrix は0/1ラベルから混同行列を作成する
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return cm, err
	}

	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		if !isBinary(t) || !isBinary(p) {
			return ConfusionMatrix{}, errors.NewValueError("ConfusionMatrix", "labels must be 0 or 1")
		}
		switch {
		case t == 1 && p == 1:
			cm.TP++
		case t == 0 && p == 1:
			cm.FP++
		case t == 1 && p == 0:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm, nil
}

// Precision は適合率 TP / (TP + FP) を計算する
// 陽性の予測が一件もない場合は警告を出して0を返す
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Precision(), nil
}

// Recall は再現率 TP / (TP + FN) を計算する
// 陽性の正解ラベルが一件もない場合は警告を出して0を返す
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Recall(), nil
}

// F1Score は適合率と再現率の調和平均を計算する
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.F1(), nil
}

// Precision は混同行列から適合率を計算する
func (c ConfusionMatrix) Precision() float64 {
	if c.TP+c.FP == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", 0))
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall は混同行列から再現率を計算する
func (c ConfusionMatrix) Recall() float64 {
	if c.TP+c.FN == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positive samples", 0))
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// F1 は混同行列からF1スコアを計算する
// TP が0の場合は適合率・再現率の警告を避けて直接0を返す
func (c ConfusionMatrix) F1() float64 {
	denom := 2*c.TP + c.FP + c.FN
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "no positive samples in either labels or predictions", 0))
		return 0
	}
	return float64(2*c.TP) / float64(denom)
}

// Accuracy は混同行列から正解率を計算する
func (c ConfusionMatrix) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Evaluate は0/1ラベルに対するすべての評価指標を計算する
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Accuracy:  cm.Accuracy(),
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
		F1:        cm.F1(),
		Confusion: cm,
	}, nil
}

// EvaluateLabels は整数ラベルのスライスに対して Evaluate を実行する
func EvaluateLabels(yTrue, yPred []int) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, errors.NewValueError("EvaluateLabels", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return Report{}, errors.NewDimensionError("EvaluateLabels", len(yTrue), len(yPred), 0)
	}
	return Evaluate(LabelsToVec(yTrue), LabelsToVec(yPred))
}

// LabelsToVec は整数ラベルを *mat.VecDense に変換する
func LabelsToVec(labels []int) *mat.VecDense {
	if len(labels) == 0 {
		return nil
	}
	data := make([]float64, len(labels))
	for i, l := range labels {
		data[i] = float64(l)
	}
	return mat.NewVecDense(len(data), data)
}

func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

func isBinary(v float64) bool {
	return v == 0 || v == 1
}
