package notify

import (
	"fmt"

	"swap-corner/pkg/rollnumber"
)

// MatchSubject 配对通知邮件主题
const MatchSubject = "Course Swap Match Found"

const matchBodyTemplate = `
Dear Student,

Great news! We found a course swap match for you.

Your Details:
Roll Number: %s
Email: %s

Match Details:
Counterpart Roll Number: %s
Counterpart Email: %s

Next Steps:
1. Contact your counterpart directly via email or in person
2. Coordinate the section swap with your respective course instructors
3. Ensure both parties complete the swap process

This is an automated message from the Course Section Swap Finder system.

Best regards,
Course Swap System
`

// MatchEmail 构造发给 recipient 的配对通知邮件
func MatchEmail(recipientRoll, counterpartRoll string) (Message, error) {
	recipientEmail, err := rollnumber.ToEmail(recipientRoll)
	if err != nil {
		return Message{}, err
	}
	counterpartEmail, err := rollnumber.ToEmail(counterpartRoll)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      recipientEmail,
		Subject: MatchSubject,
		Body:    fmt.Sprintf(matchBodyTemplate, recipientRoll, recipientEmail, counterpartRoll, counterpartEmail),
	}, nil
}
