// Package flow 换班页面流程状态机
//
// 会话在 identifier_entry → course_selection → loading → result 之间流转。
// 每个事件对应一个转移方法，方法不修改接收者，返回新的会话值；
// 学号、选课与最近一次配对结果都保存在 Session 内。
package flow

import (
	"errors"
	"time"

	"swap-corner/pkg/rollnumber"
)

// State 流程状态
type State string

const (
	StateIdentifierEntry State = "identifier_entry"
	StateCourseSelection State = "course_selection"
	StateLoading         State = "loading"
	StateResult          State = "result"
)

var (
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	ErrBusy              = errors.New("已有配对请求正在处理，请稍候")
	ErrInvalidIdentifier = errors.New("学号格式无效，应为 23L-0632 形式")
)

// Selection 选课表单
type Selection struct {
	CurrentCourse  string `json:"current_course"`
	CurrentSection string `json:"current_section"`
	TargetCourse   string `json:"target_course"`
	TargetSection  string `json:"target_section"`
	Semester       int    `json:"semester"`
}

// Outcome 配对结果展示数据
type Outcome struct {
	Matched          bool   `json:"matched"`
	CounterpartRoll  string `json:"counterpart_roll,omitempty"`
	CounterpartEmail string `json:"counterpart_email,omitempty"`
	ComposeLink      string `json:"compose_link,omitempty"`
	CourseCurrent    string `json:"course_current"`
	CourseTarget     string `json:"course_target"`
}

// Session 一次页面会话
type Session struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	RollNumber string    `json:"roll_number,omitempty"`
	Selection  Selection `json:"selection"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New 新会话，从学号输入开始
func New(id string, now time.Time) Session {
	return Session{ID: id, State: StateIdentifierEntry, UpdatedAt: now}
}

// EnterIdentifier 提交学号；格式合法才进入选课
func (s Session) EnterIdentifier(input string, now time.Time) (Session, error) {
	if s.State != StateIdentifierEntry {
		return s, ErrInvalidTransition
	}
	roll := rollnumber.Normalize(input)
	if !rollnumber.Validate(roll) {
		return s, ErrInvalidIdentifier
	}
	s.State = StateCourseSelection
	s.RollNumber = roll
	s.Error = ""
	s.UpdatedAt = now
	return s, nil
}

// BeginSubmit 提交选课，进入 loading；同一会话同时只允许一个请求
func (s Session) BeginSubmit(sel Selection, now time.Time) (Session, error) {
	switch s.State {
	case StateLoading:
		return s, ErrBusy
	case StateCourseSelection:
	default:
		return s, ErrInvalidTransition
	}
	s.State = StateLoading
	s.Selection = sel
	s.Error = ""
	s.UpdatedAt = now
	return s, nil
}

// Reject 表单校验失败，回到选课并提示原因
func (s Session) Reject(reason string, now time.Time) (Session, error) {
	return s.backToSelection(reason, now)
}

// FailMatch 配对过程失败（如存储不可用），回到选课并提示原因
func (s Session) FailMatch(reason string, now time.Time) (Session, error) {
	return s.backToSelection(reason, now)
}

func (s Session) backToSelection(reason string, now time.Time) (Session, error) {
	if s.State != StateLoading {
		return s, ErrInvalidTransition
	}
	s.State = StateCourseSelection
	s.Error = reason
	s.UpdatedAt = now
	return s, nil
}

// CompleteMatch 配对完成（无论是否命中），进入结果页
func (s Session) CompleteMatch(outcome Outcome, now time.Time) (Session, error) {
	if s.State != StateLoading {
		return s, ErrInvalidTransition
	}
	s.State = StateResult
	s.Outcome = &outcome
	s.Error = ""
	s.UpdatedAt = now
	return s, nil
}

// StartOver 清空会话回到学号输入；loading 期间不可用
func (s Session) StartOver(now time.Time) (Session, error) {
	if s.State == StateLoading {
		return s, ErrBusy
	}
	return New(s.ID, now), nil
}

// ChangeSelection 从结果页返回选课，保留学号与上次表单
func (s Session) ChangeSelection(now time.Time) (Session, error) {
	if s.State != StateResult {
		return s, ErrInvalidTransition
	}
	s.State = StateCourseSelection
	s.Outcome = nil
	s.Error = ""
	s.UpdatedAt = now
	return s, nil
}
