package model

import (
	"fmt"
	"math"
)

// GBDTModel 实现了梯度提升树 (Gradient Boosted Decision Trees) 模型。
// 离线训练管道导出 JSON 工件（树结构 + 列清单），服务侧只做前向遍历。
//
// 预测原理：
// 1. 每棵树从根遍历到叶子：row[Feature] <= Threshold 走左，否则走右
// 2. 累加叶子值: z = Bias + LearningRate * sum(leaf_i)
// 3. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 是类概率形态，范围在 (0, 1) 之间；对排序只要求单调。
type GBDTModel struct {
	Bias         float64
	LearningRate float64
	Trees        []Tree
}

// Tree 是一棵回归树，节点按数组存储，根节点下标 0。
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode 是树的单个节点。叶子节点只有 Value 有意义。
type TreeNode struct {
	Feature   int     `json:"feature"`   // 特征列下标（对齐 Artifact 列清单）
	Threshold float64 `json:"threshold"` // 分裂阈值
	Left      int     `json:"left"`      // 左子节点下标
	Right     int     `json:"right"`     // 右子节点下标
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

func (m *GBDTModel) Name() string { return "gbdt" }

func (m *GBDTModel) Predict(row []float64) (float64, error) {
	z := m.Bias
	lr := m.LearningRate
	if lr == 0 {
		lr = 1.0
	}
	for ti := range m.Trees {
		leaf, err := m.Trees[ti].traverse(row)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", ti, err)
		}
		z += lr * leaf
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (t *Tree) traverse(row []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, nil
	}
	i := 0
	// 节点数是遍历步数的上界，防御循环引用的坏工件
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", i)
		}
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value, nil
		}
		if n.Feature < 0 || n.Feature >= len(row) {
			return 0, fmt.Errorf("feature index %d out of range", n.Feature)
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("tree traversal did not reach a leaf")
}
