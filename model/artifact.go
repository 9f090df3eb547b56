package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rushteam/searchrank/core"
)

// Artifact 是训练好的模型工件：不透明的打分能力 + 版本号 + 期望的特征列清单。
// 加载后只读，可被任意并发请求共享；实现 core.Scorer。
type Artifact struct {
	version string
	columns []string
	model   RankModel
}

// NewArtifact 从已构建的 RankModel 组装工件（测试/内嵌模型用）。
func NewArtifact(version string, columns []string, m RankModel) *Artifact {
	return &Artifact{version: version, columns: columns, model: m}
}

func (a *Artifact) Version() string { return a.version }

// Columns 返回模型期望的特征列清单（有序，调用方不得改写）。
func (a *Artifact) Columns() []string { return a.columns }

// Score 对 N×len(Columns) 的特征矩阵整批打分，返回与行同序的 N 个分数。
// 列宽不匹配在进入底层模型前就拦下，返回 CONTRACT_VIOLATION；
// 这类错误说明特征与模型版本脱节，是部署问题而非单请求问题。
func (a *Artifact) Score(matrix [][]float64) ([]float64, error) {
	scores := make([]float64, len(matrix))
	width := len(a.columns)
	for i, row := range matrix {
		if len(row) != width {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeContractViolation,
				fmt.Sprintf("model: row %d has %d columns, artifact %s expects %d", i, len(row), a.version, width))
		}
		s, err := a.model.Predict(row)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
				fmt.Sprintf("model: predict row %d: %v", i, err))
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
				fmt.Sprintf("model: non-finite score at row %d", i))
		}
		scores[i] = s
	}
	return scores, nil
}

var _ core.Scorer = (*Artifact)(nil)

// artifactFile 是工件 JSON 的落盘格式。
// 训练管道导出：版本、模型类型、列清单，外加各模型类型的参数。
type artifactFile struct {
	Version      string             `json:"version"`
	ModelType    string             `json:"model_type"`
	FeatureCols  []string           `json:"feature_cols"`
	Bias         float64            `json:"bias"`
	LearningRate float64            `json:"learning_rate"`
	Trees        []Tree             `json:"trees"`
	Weights      map[string]float64 `json:"weights"`
}

// LoadArtifact 从 JSON 文件加载模型工件。
// 文件缺失/解析失败/列清单为空时返回 LOAD_FAILED 错误。
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeLoadFailed,
			fmt.Sprintf("model: read artifact %s: %v", path, err))
	}

	var raw artifactFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeLoadFailed,
			fmt.Sprintf("model: parse artifact %s: %v", path, err))
	}
	if len(raw.FeatureCols) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeLoadFailed,
			fmt.Sprintf("model: artifact %s has no feature columns", path))
	}

	var m RankModel
	switch raw.ModelType {
	case "", "gbdt":
		m = &GBDTModel{
			Bias:         raw.Bias,
			LearningRate: raw.LearningRate,
			Trees:        raw.Trees,
		}
	case "lr":
		// JSON 中按特征名存权重，加载时对齐到列清单的下标
		weights := make([]float64, len(raw.FeatureCols))
		for i, col := range raw.FeatureCols {
			weights[i] = raw.Weights[col]
		}
		m = &LRModel{Bias: raw.Bias, Weights: weights}
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeLoadFailed,
			fmt.Sprintf("model: unknown model type %q in %s", raw.ModelType, path))
	}

	return &Artifact{
		version: raw.Version,
		columns: raw.FeatureCols,
		model:   m,
	}, nil
}
