package respond

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the standard success wrapper.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Pagination describes the position of a page within a listing.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// NewPagination computes page metadata for a listing.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Current: page, Pages: pages, Total: total}
}

// JSON writes a success envelope with the given status.
func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OK writes a 200 OK success envelope.
func OK(c *gin.Context, data any) {
	JSON(c, http.StatusOK, data)
}

// Created writes a 201 Created success envelope.
func Created(c *gin.Context, data any) {
	JSON(c, http.StatusCreated, data)
}
