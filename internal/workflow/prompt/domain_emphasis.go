package prompt

import "dream-planner-api/internal/domain/entity"

// domainEmphasis 每个领域唯一对应一条侧重点；新增领域只需补充此表
var domainEmphasis = map[entity.DreamDomain]string{
	entity.DreamDomainStartup:  "business fundamentals, product development, user acquisition, and scaling",
	entity.DreamDomainPersonal: "skill development, habit formation, resource gathering, and personal growth",
	entity.DreamDomainAcademic: "learning pathways, research methods, knowledge building, and academic milestones",
}

// DomainEmphasis 返回领域侧重点，未知领域返回 false
func DomainEmphasis(domain entity.DreamDomain) (string, bool) {
	s, ok := domainEmphasis[domain]
	return s, ok
}
