// internal/service/sampling.go
package service

import (
	"math/rand"

	"go_cyber_aware/internal/model"
)

// pickQuestions は perm の先頭 count 件の問題をコピーして返します。
func pickQuestions(bank []model.Question, perm []int, count int) []model.Question {
	out := make([]model.Question, 0, count)
	for _, idx := range perm[:count] {
		q := bank[idx]
		q.Options = append([]model.Option(nil), q.Options...)
		out = append(out, q)
	}
	return out
}

// seededSample は seed から決まる順列で count 件を選びます (同じ seed なら同じ結果)。
func seededSample(bank []model.Question, seed int64, count int) []model.Question {
	r := rand.New(rand.NewSource(seed))
	return pickQuestions(bank, r.Perm(len(bank)), count)
}

// randomSample は非決定的に重複なしで count 件を選びます。
func randomSample(bank []model.Question, count int) []model.Question {
	if count > len(bank) {
		count = len(bank)
	}
	return pickQuestions(bank, rand.Perm(len(bank)), count)
}
