package notify

import (
	"net/url"
	"strings"

	"swap-corner/pkg/rollnumber"
)

const composeBaseURL = "https://mail.google.com/mail/?view=cm&fs=1"

const composeBodyTemplate = `
Hello,

You've been matched for a course section swap!

My current course: {current}
Your current course: {target}

Please reply to coordinate the swap.

Thanks,
FAST Swap Corner
`

// ComposeSubject 写信链接的主题，包含双方学号
func ComposeSubject(myRoll, counterpartRoll string) string {
	return "Course Section Swap - " + myRoll + " & " + counterpartRoll
}

// ComposeBody 写信链接的正文；课程为空时填 N/A
func ComposeBody(currentCourse, targetCourse string) string {
	if currentCourse == "" {
		currentCourse = "N/A"
	}
	if targetCourse == "" {
		targetCourse = "N/A"
	}
	return strings.NewReplacer("{current}", currentCourse, "{target}", targetCourse).Replace(composeBodyTemplate)
}

// ComposeLink 生成给对方写信的 Gmail 链接（仅为便捷入口，不负责投递）
func ComposeLink(myRoll, counterpartRoll, currentCourse, targetCourse string) (string, error) {
	to, err := rollnumber.ToEmail(counterpartRoll)
	if err != nil {
		return "", err
	}
	return composeBaseURL +
		"&to=" + to +
		"&su=" + encodeComponent(ComposeSubject(myRoll, counterpartRoll)) +
		"&body=" + encodeComponent(ComposeBody(currentCourse, targetCourse)), nil
}

// encodeComponent 按 URI 组件规则编码，空格编码为 %20
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
