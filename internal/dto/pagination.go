package dto

// ── 分页请求 ──

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationRequest 变更记录等列表的分页参数（page 从 1 开始）
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码，缺省为 1
func (p *PaginationRequest) GetPage() int {
	if p == nil || p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 每页数量，缺省 20，上限 100（绕过 binding 直接构造时同样生效）
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p == nil || p.PageSize <= 0:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
