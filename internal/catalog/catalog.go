// Package catalog 静态课程目录：课程查询、检索与班级（section）校验
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed courses.yaml
var defaultCatalog []byte

// DefaultSearchLimit 课程检索默认返回条数
const DefaultSearchLimit = 10

// ErrInvalidCatalog 目录文件内容不合法
var ErrInvalidCatalog = errors.New("课程目录无效")

// Course 课程（静态参考数据，用户不可修改）
type Course struct {
	Code       string `yaml:"code"       json:"code"`
	Name       string `yaml:"name"       json:"name"`
	Department string `yaml:"department" json:"department"`
}

type document struct {
	Sections []string `yaml:"sections"`
	Courses  []Course `yaml:"courses"`
}

// Catalog 课程目录，可并发读取，支持整体替换（热加载）
type Catalog struct {
	mu       sync.RWMutex
	courses  []Course
	byCode   map[string]Course
	sections []string
	sectSet  map[string]struct{}
}

// Parse 解析 YAML 目录内容
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(doc.Courses) == 0 {
		return nil, fmt.Errorf("%w: 课程列表为空", ErrInvalidCatalog)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%w: 班级列表为空", ErrInvalidCatalog)
	}

	c := &Catalog{}
	if err := c.load(doc); err != nil {
		return nil, err
	}
	return c, nil
}

// Default 返回内置目录
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("内置课程目录无效: %v", err))
	}
	return c
}

// LoadFile 从文件加载目录
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取课程目录失败: %w", err)
	}
	return Parse(data)
}

func (c *Catalog) load(doc document) error {
	byCode := make(map[string]Course, len(doc.Courses))
	courses := make([]Course, 0, len(doc.Courses))
	for i, course := range doc.Courses {
		course.Code = strings.ToUpper(strings.TrimSpace(course.Code))
		course.Name = strings.TrimSpace(course.Name)
		course.Department = strings.ToUpper(strings.TrimSpace(course.Department))
		if course.Code == "" || course.Name == "" || course.Department == "" {
			return fmt.Errorf("%w: 第 %d 门课程字段不完整", ErrInvalidCatalog, i+1)
		}
		if _, dup := byCode[course.Code]; dup {
			return fmt.Errorf("%w: 课程代码 %s 重复", ErrInvalidCatalog, course.Code)
		}
		byCode[course.Code] = course
		courses = append(courses, course)
	}

	sectSet := make(map[string]struct{}, len(doc.Sections))
	sections := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			return fmt.Errorf("%w: 班级名称不能为空", ErrInvalidCatalog)
		}
		if _, dup := sectSet[s]; dup {
			continue
		}
		sectSet[s] = struct{}{}
		sections = append(sections, s)
	}

	c.mu.Lock()
	c.courses = courses
	c.byCode = byCode
	c.sections = sections
	c.sectSet = sectSet
	c.mu.Unlock()
	return nil
}

// Replace 用 other 的内容整体替换当前目录
func (c *Catalog) Replace(other *Catalog) {
	other.mu.RLock()
	courses, byCode, sections, sectSet := other.courses, other.byCode, other.sections, other.sectSet
	other.mu.RUnlock()

	c.mu.Lock()
	c.courses, c.byCode, c.sections, c.sectSet = courses, byCode, sections, sectSet
	c.mu.Unlock()
}

// Lookup 按课程代码查询（不区分大小写）
func (c *Catalog) Lookup(code string) (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return course, ok
}

// Courses 返回全部课程（目录顺序）
func (c *Catalog) Courses() []Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// Search 按代码或名称子串检索课程（不区分大小写）
//
// 行为与选课界面保持一致：
//   - query 为空：取目录末尾 limit 门课程并倒序
//   - query 非空：取前 limit 条命中后倒序
//   - department 非空时仅在该院系内检索
func (c *Catalog) Search(query, department string, limit int) []Course {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query = strings.ToLower(strings.TrimSpace(query))
	department = strings.ToUpper(strings.TrimSpace(department))

	c.mu.RLock()
	pool := make([]Course, 0, len(c.courses))
	for _, course := range c.courses {
		if department != "" && course.Department != department {
			continue
		}
		pool = append(pool, course)
	}
	c.mu.RUnlock()

	var result []Course
	if query == "" {
		reverse(pool)
		result = pool
	} else {
		for _, course := range pool {
			if strings.Contains(strings.ToLower(course.Name), query) ||
				strings.Contains(strings.ToLower(course.Code), query) {
				result = append(result, course)
			}
		}
		if len(result) > limit {
			result = result[:limit]
		}
		reverse(result)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	if result == nil {
		result = []Course{}
	}
	return result
}

// Departments 返回目录中出现的院系（字典序）
func (c *Catalog) Departments() []string {
	c.mu.RLock()
	seen := make(map[string]struct{})
	for _, course := range c.courses {
		seen[course.Department] = struct{}{}
	}
	c.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Sections 返回可选班级列表
func (c *Catalog) Sections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.sections))
	copy(out, c.sections)
	return out
}

// ValidSection 判断班级是否在目录中
func (c *Catalog) ValidSection(section string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sectSet[strings.ToUpper(strings.TrimSpace(section))]
	return ok
}

// DepartmentOf 返回课程所属院系；课程不在目录中时返回 false
func (c *Catalog) DepartmentOf(code string) (string, bool) {
	course, ok := c.Lookup(code)
	if !ok {
		return "", false
	}
	return course.Department, true
}

// ── 课程+班级 文本格式 ──

// FormatCourseWithSection 组合为存储格式 "CS2001 A"
func FormatCourseWithSection(code, section string) string {
	return strings.ToUpper(strings.TrimSpace(code)) + " " + strings.ToUpper(strings.TrimSpace(section))
}

// ParseCourseWithSection 拆分 "CS2001 A" 为课程代码与班级
func ParseCourseWithSection(s string) (code, section string, ok bool) {
	code, section, ok = strings.Cut(strings.TrimSpace(s), " ")
	if !ok || code == "" || section == "" || strings.Contains(section, " ") {
		return "", "", false
	}
	return code, section, true
}

// DepartmentFromCode 去掉课程代码中的数字得到院系前缀："CS101" → "CS"
// 目录中未登记的课程以此作为兜底
func DepartmentFromCode(code string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, code))
}

func reverse(courses []Course) {
	for i, j := 0, len(courses)-1; i < j; i, j = i+1, j-1 {
		courses[i], courses[j] = courses[j], courses[i]
	}
}
