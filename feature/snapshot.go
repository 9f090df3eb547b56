package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/searchrank/core"
)

// 快照必须携带的键列。
const (
	colQuery     = "query"
	colProductID = "product_id"
)

// metaColumns 是快照中顺带携带的展示字段列（非数值特征）。
var metaColumns = map[string]bool{
	"title":       true,
	"category":    true,
	"brand":       true,
	"description": true,
	"tags":        true,
	"user_id":     true,
}

// pairKey 是快照行的定位键：归一化查询词 + 商品 ID。
type pairKey struct {
	query     string
	productID int64
}

// Snapshot 是一份完整加载的特征快照：只读，按（查询词, 商品）定位。
// 离线特征工程按列式格式产出；加载时按列名重投影，不依赖列的物理顺序。
type Snapshot struct {
	rows     map[pairKey]*core.FeatureRecord
	products map[int64]map[string]float64 // 商品级聚合特征（与查询词无关）
	columns  []string                     // 数值特征列名（按快照头部顺序）
}

// NormalizeQuery 归一化查询词：小写、去首尾空白、压缩内部空白。
// 离线管道与服务侧必须使用同一套规则，否则点查会系统性 miss。
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// IsQuerySpecific 判断特征列是否为查询相关特征。
// 查询相关特征（query_* 与文本相似度）不能作为商品级聚合复用。
func IsQuerySpecific(column string) bool {
	return strings.HasPrefix(column, "query_") || column == "tfidf_similarity"
}

// LoadSnapshot 从列式 CSV 文件加载快照。
// 文件缺失、不可读、缺少键列时返回 LOAD_FAILED 错误；
// 单行的脏数据（无法解析的数值）按 0.0 处理，不让一行坏数据毁掉整份快照。
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeLoadFailed,
			fmt.Sprintf("feature: open snapshot %s: %v", path, err))
	}
	defer f.Close()

	return ReadSnapshot(f)
}

// ReadSnapshot 从 reader 解析快照（便于测试与非文件来源）。
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeLoadFailed,
			fmt.Sprintf("feature: read snapshot header: %v", err))
	}

	// 按列名定位，列的物理顺序无关紧要
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colQuery, colProductID} {
		if _, ok := idx[required]; !ok {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeLoadFailed,
				fmt.Sprintf("feature: snapshot missing required column %q", required))
		}
	}

	var columns []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name == colQuery || name == colProductID || metaColumns[name] {
			continue
		}
		columns = append(columns, name)
	}

	snap := &Snapshot{
		rows:     make(map[pairKey]*core.FeatureRecord),
		products: make(map[int64]map[string]float64),
		columns:  columns,
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeLoadFailed,
				fmt.Sprintf("feature: read snapshot row: %v", err))
		}

		get := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		productID, err := strconv.ParseInt(get(colProductID), 10, 64)
		if err != nil {
			// 商品 ID 解析不了的行无法定位，跳过
			continue
		}

		rec := &core.FeatureRecord{
			Query:     NormalizeQuery(get(colQuery)),
			ProductID: productID,
			Features:  make(map[string]float64, len(columns)),
			Meta:      make(map[string]string),
		}
		for _, col := range columns {
			v, _ := strconv.ParseFloat(get(col), 64)
			rec.Features[col] = v
		}
		for name := range metaColumns {
			if s := get(name); s != "" {
				rec.Meta[name] = s
			}
		}

		snap.addRow(rec)
	}

	return snap, nil
}

// addRow 登记一行：查询词为空的行视为商品级聚合行；
// 带查询词的行在首次出现时也贡献一份商品级聚合（剔除查询相关列）。
func (s *Snapshot) addRow(rec *core.FeatureRecord) {
	if rec.Query == "" {
		s.products[rec.ProductID] = productLevel(rec.Features)
		return
	}

	s.rows[pairKey{query: rec.Query, productID: rec.ProductID}] = rec
	if _, ok := s.products[rec.ProductID]; !ok {
		s.products[rec.ProductID] = productLevel(rec.Features)
	}
}

// productLevel 从一行特征中剥离出商品级聚合特征。
func productLevel(features map[string]float64) map[string]float64 {
	aggs := make(map[string]float64, len(features))
	for k, v := range features {
		if IsQuerySpecific(k) {
			continue
		}
		aggs[k] = v
	}
	return aggs
}

// Lookup 点查（归一化查询词, 商品 ID）。
func (s *Snapshot) Lookup(query string, productID int64) (*core.FeatureRecord, bool) {
	rec, ok := s.rows[pairKey{query: NormalizeQuery(query), productID: productID}]
	return rec, ok
}

// ProductAggregates 返回商品级聚合特征的副本（调用方可安全改写）。
func (s *Snapshot) ProductAggregates(productID int64) (map[string]float64, bool) {
	aggs, ok := s.products[productID]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(aggs))
	for k, v := range aggs {
		out[k] = v
	}
	return out, true
}

// Columns 返回数值特征列名。
func (s *Snapshot) Columns() []string { return s.columns }

// Len 返回快照中（查询词, 商品）行数。
func (s *Snapshot) Len() int { return len(s.rows) }
