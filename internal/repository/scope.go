package repository

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
)

// scopeClause условие административной зоны пользователя над колонками класса.
// Параметры нумеруются начиная с next.
func scopeClause(p *auth.Principal, classCol, yearCol, curriculumCol string, next int) (string, []any) {
	switch p.Role {
	case model.RoleSystem:
		return "TRUE", nil
	case model.RoleYear:
		return fmt.Sprintf("%s = $%d", yearCol, next), []any{p.GradYear}
	case model.RoleCurriculum:
		return fmt.Sprintf("(%s = $%d AND %s = $%d)", yearCol, next, curriculumCol, next+1),
			[]any{p.GradYear, p.CurriculumUID}
	case model.RoleClass:
		return fmt.Sprintf("(%s = $%d AND %s = $%d)", yearCol, next, classCol, next+1),
			[]any{p.GradYear, p.ClassNumber}
	}
	return "FALSE", nil
}

// likePattern экранирует спецсимволы LIKE и оборачивает текст в %...%
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(text)) + "%"
}
