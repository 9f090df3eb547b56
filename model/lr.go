package model

import "math"

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
// 它是点击率预估最基础也最经典的算法，这里作为轻量工件类型保留。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * row_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// Weights 与 Artifact 的列清单按下标对齐。
type LRModel struct {
	Bias    float64
	Weights []float64
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(row []float64) (float64, error) {
	z := m.Bias
	n := len(m.Weights)
	if len(row) < n {
		n = len(row)
	}
	for i := 0; i < n; i++ {
		z += m.Weights[i] * row[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}
