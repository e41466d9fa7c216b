package service

import (
	"math/rand"

	"course-planner/internal/model"
)

// RandSource 随机数来源，返回 [0, n)
type RandSource interface {
	IntN(n int) int
}

// globalRand 使用 math/rand 的全局源（并发安全）
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// ColorAllocator 为新课程挑选调色板颜色索引 [1, numColors]
type ColorAllocator struct {
	numColors int
	rnd       RandSource
}

// NewColorAllocator 创建颜色分配器，rnd 为 nil 时使用全局随机源
func NewColorAllocator(numColors int, rnd RandSource) *ColorAllocator {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &ColorAllocator{numColors: numColors, rnd: rnd}
}

// NumColors 调色板大小
func (a *ColorAllocator) NumColors() int {
	return a.numColors
}

// AvailableColors 尚未被任何条目占用的颜色索引（升序）
func (a *ColorAllocator) AvailableColors(entries []model.TimetableEntry) []int {
	used := make(map[int]bool, len(entries))
	for i := range entries {
		if idx := entries[i].ColorIndex; idx > 0 {
			used[idx] = true
		}
	}
	available := make([]int, 0, a.numColors)
	for idx := 1; idx <= a.numColors; idx++ {
		if !used[idx] {
			available = append(available, idx)
		}
	}
	return available
}

// PickColor 优先在空闲颜色中均匀随机；调色板用尽时在全部颜色中均匀随机
func (a *ColorAllocator) PickColor(entries []model.TimetableEntry) int {
	available := a.AvailableColors(entries)
	if len(available) > 0 {
		return available[a.rnd.IntN(len(available))]
	}
	return a.rnd.IntN(a.numColors) + 1
}
