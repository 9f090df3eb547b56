package core

// Scorer 是训练好的排序模型的最小抽象：输入特征矩阵，输出同序分数。
//
// 设计原则：
//   - 模型是不透明能力：除 Columns 声明的列清单外，不假设内部结构
//   - Score 必须整批调用（延迟考虑），不做逐行 RPC
//   - 分数只保证"越大越相关"，不保证取值范围
//
// 实现：
//   - model.Artifact 实现此接口（本地 GBDT/LR 工件）
type Scorer interface {
	// Version 返回模型版本标识
	Version() string

	// Columns 返回模型期望的特征列清单（有序）；
	// 打分矩阵的每一行必须严格按此顺序、此宽度组装
	Columns() []string

	// Score 对 N×len(Columns) 的特征矩阵打分，返回 N 个分数（与行同序）。
	// 列宽不匹配时返回 CONTRACT_VIOLATION 错误，不把原始库异常透传上去。
	Score(matrix [][]float64) ([]float64, error)
}

// ScorerProvider 是"当前模型"的来源，支持运行期热切换。
//
// 热切换契约：新版本生效后，之后发起的请求全程使用新模型；
// 切换前已发起的请求全程使用旧模型；不存在混用状态。
// 实现采用原子引用交换（model.Provider）。
type ScorerProvider interface {
	// Current 返回当前模型；尚未加载成功时返回 nil
	Current() Scorer

	// Degraded 返回是否处于降级状态（热切换失败、仍在用上一个可用版本）
	Degraded() bool
}

// Model 错误定义
var (
	// ErrModelUnavailable 表示没有可用的模型工件（启动未完成或加载失败）
	ErrModelUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "model: no artifact available")
)
