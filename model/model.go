package model

// RankModel 是排序模型的最小抽象：输入一行按列清单对齐的特征值，输出一个可比较的分数。
// 具体实现可以是 GBDT、LR 或其他本地工件；行的列顺序由 Artifact 统一保证。
type RankModel interface {
	Name() string
	Predict(row []float64) (float64, error)
}
