package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// logLossEps は log(0) を避けるためのクリッピング幅
const logLossEps = 1e-15

// checkBinaryLabels は正解ラベルが0/1のみであることを検証し、陽性数を返す
func checkBinaryLabels(op string, yTrue *mat.VecDense) (int, error) {
	positives := 0
	for i := 0; i < yTrue.Len(); i++ {
		v := yTrue.AtVec(i)
		if !isBinary(v) {
			return 0, errors.NewValueError(op, "labels must be 0 or 1")
		}
		if v == 1 {
			positives++
		}
	}
	return positives, nil
}

// AUC はROC曲線下面積を計算する
// yPred は陽性クラスの確率（またはスコア）。同点のスコアは0.5として数える
// 正解ラベルが一方のクラスのみの場合は未定義のため警告を出して0.5を返す
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	positives, err := checkBinaryLabels("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	if positives == 0 || positives == n {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present in labels", 0.5))
		return 0.5, nil
	}

	// stat.ROC はスコアの昇順を要求する
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = yPred.AtVec(i)
	}
	order := make([]int, n)
	floats.Argsort(scores, order)
	classes := make([]bool, n)
	for i, idx := range order {
		classes[i] = yTrue.AtVec(idx) == 1
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する（先頭列を使用）
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yp, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(yt, yp)
}

// BinaryLogLoss は二値交差エントロピーを計算する
// 確率は [eps, 1-eps] にクリップされる
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if _, err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yPred.AtVec(i), logLossEps), 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// BrierScore は陽性確率と正解ラベルの平均二乗誤差を計算する
func BrierScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BrierScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if _, err := checkBinaryLabels("BrierScore", yTrue); err != nil {
		return 0, err
	}

	// BS = (1/n) * Σ(p - y)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred.AtVec(i) - yTrue.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
