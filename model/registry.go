package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/searchrank/core"
)

// 工件命名约定：训练管道写 models/model_<version>.json，
// 并把当前版本号写进版本指针。
const (
	artifactPrefix     = "model_"
	artifactSuffix     = ".json"
	defaultPointerFile = "current_model_version.txt"
)

// VersionPointer 指示"当前生效的模型版本"。
// 训练管道在发布新模型后更新指针；服务侧周期性读取并热切换。
type VersionPointer interface {
	Current(ctx context.Context) (string, error)
}

// FilePointer 是文件实现：指针文件里只有一行版本号。
type FilePointer struct {
	Path string
}

func (p *FilePointer) Current(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotFound,
			fmt.Sprintf("registry: read version pointer %s: %v", p.Path, err))
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotFound,
			fmt.Sprintf("registry: version pointer %s is empty", p.Path))
	}
	return version, nil
}

// KVPointer 是 KV 实现：版本号存在 Store 的单个 key 下（如 Redis）。
// 多实例部署时比文件指针更方便统一切换。
type KVPointer struct {
	Store core.Store
	Key   string
}

func (p *KVPointer) Current(ctx context.Context) (string, error) {
	key := p.Key
	if key == "" {
		key = "searchrank:model:current"
	}
	data, err := p.Store.Get(ctx, key)
	if err != nil {
		return "", core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotFound,
			fmt.Sprintf("registry: read version pointer %s: %v", key, err))
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotFound,
			fmt.Sprintf("registry: version pointer %s is empty", key))
	}
	return version, nil
}

// Registry 解析"当前模型版本 → 可打分的工件"。
//
// 目录布局（与训练管道的输出契约）：
//
//	models/
//	  current_model_version.txt   ← FilePointer（默认）
//	  model_v20260810.json
//	  model_v20260824.json
type Registry struct {
	Dir     string
	Pointer VersionPointer
}

// NewRegistry 创建基于目录 + 文件指针的注册表。
func NewRegistry(dir string) *Registry {
	return &Registry{
		Dir:     dir,
		Pointer: &FilePointer{Path: filepath.Join(dir, defaultPointerFile)},
	}
}

// CurrentVersion 读取当前生效的版本号。
func (r *Registry) CurrentVersion(ctx context.Context) (string, error) {
	return r.Pointer.Current(ctx)
}

// Load 按版本号加载工件。
// 指针指向不存在的工件时返回 NOT_FOUND（registry 模块）错误。
func (r *Registry) Load(version string) (*Artifact, error) {
	path := filepath.Join(r.Dir, artifactPrefix+version+artifactSuffix)
	if _, err := os.Stat(path); err != nil {
		return nil, core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotFound,
			fmt.Sprintf("registry: artifact for version %q not found: %v", version, err))
	}
	return LoadArtifact(path)
}
