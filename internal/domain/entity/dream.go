// Package entity 定义领域实体
package entity

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// DreamDomain 梦想所属领域
type DreamDomain string

const (
	DreamDomainStartup  DreamDomain = "startup"
	DreamDomainPersonal DreamDomain = "personal"
	DreamDomainAcademic DreamDomain = "academic"
)

// DreamDomains 返回全部受支持的领域
func DreamDomains() []DreamDomain {
	return []DreamDomain{DreamDomainStartup, DreamDomainPersonal, DreamDomainAcademic}
}

// Valid 检查领域取值是否受支持（精确匹配，不做大小写归一）
func (d DreamDomain) Valid() bool {
	switch d {
	case DreamDomainStartup, DreamDomainPersonal, DreamDomainAcademic:
		return true
	default:
		return false
	}
}

// DefaultDreamTitleMaxRunes 标题默认最大字符数
const DefaultDreamTitleMaxRunes = 100

// Dream 梦想实体
type Dream struct {
	ID          string      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      string      `json:"user_id" gorm:"type:uuid;not null;index:idx_dreams_user_created,priority:1"`
	Title       string      `json:"title" gorm:"type:varchar(255);not null"`
	Description string      `json:"description" gorm:"type:text;not null"`
	Domain      DreamDomain `json:"domain" gorm:"type:varchar(32);not null"`
	Steps       []*Step     `json:"steps,omitempty" gorm:"foreignKey:DreamID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime;index:idx_dreams_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Dream) TableName() string {
	return "dreams"
}

// NewDream 创建新梦想，标题取梦想文本的前 titleMaxRunes 个字符
func NewDream(userID, text string, domain DreamDomain, titleMaxRunes int) *Dream {
	now := time.Now()
	return &Dream{
		UserID:      userID,
		Title:       TruncateTitle(text, titleMaxRunes),
		Description: text,
		Domain:      domain,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TruncateTitle 按字符截断标题，不会切断多字节字符
func TruncateTitle(text string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultDreamTitleMaxRunes
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes])
}

// Progress 梦想完成进度
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// ComputeProgress 根据步骤计算完成进度
func ComputeProgress(steps []*Step) Progress {
	p := Progress{Total: len(steps)}
	for _, s := range steps {
		if s != nil && s.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}

// Progress 返回当前梦想的完成进度
func (d *Dream) Progress() Progress {
	return ComputeProgress(d.Steps)
}
