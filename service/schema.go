package service

import (
	"fmt"

	"github.com/rushteam/searchrank/core"
)

// rankRequest 是 POST /rank 的请求体。
type rankRequest struct {
	Query    string         `json:"query"`
	UserID   string         `json:"user_id"`
	Products []productInput `json:"products"`
}

type productInput struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags,omitempty"`
}

// rankResponse 是 POST /rank 的响应体；ranked_products 按分数降序。
type rankResponse struct {
	Query          string         `json:"query"`
	ModelVersion   string         `json:"model_version"`
	NumProducts    int            `json:"num_products"`
	RankedProducts []rankedOutput `json:"ranked_products"`
}

type rankedOutput struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title,omitempty"`
}

// healthResponse 是 GET /health 的响应体。
type healthResponse struct {
	Status       string `json:"status"` // ok / degraded / unavailable
	ModelVersion string `json:"model_version,omitempty"`
	SnapshotRows int    `json:"snapshot_rows"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (r *rankRequest) validate() error {
	if r.Query == "" {
		return fmt.Errorf("query is required")
	}
	for i, p := range r.Products {
		if p.ID <= 0 {
			return fmt.Errorf("products[%d]: id must be positive", i)
		}
	}
	return nil
}

func (r *rankRequest) toDomain() *core.RankRequest {
	products := make([]*core.Product, 0, len(r.Products))
	for _, p := range r.Products {
		products = append(products, &core.Product{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Category:    p.Category,
			Description: p.Description,
			Brand:       p.Brand,
			Rating:      p.Rating,
			Tags:        p.Tags,
		})
	}
	return &core.RankRequest{
		Query:    r.Query,
		UserID:   r.UserID,
		Products: products,
	}
}

func toResponse(res *core.RankResult) *rankResponse {
	out := &rankResponse{
		Query:          res.Query,
		ModelVersion:   res.ModelVersion,
		NumProducts:    len(res.Ranked),
		RankedProducts: make([]rankedOutput, 0, len(res.Ranked)),
	}
	for _, r := range res.Ranked {
		out.RankedProducts = append(out.RankedProducts, rankedOutput{
			ProductID: r.ID,
			Score:     r.Score,
			Title:     r.Title,
		})
	}
	return out
}
