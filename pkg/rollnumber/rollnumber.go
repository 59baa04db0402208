// Package rollnumber 学号（形如 23L-0632）的格式校验与邮箱推导
package rollnumber

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// EmailDomain 学校邮箱域名
const EmailDomain = "lhr.nu.edu.pk"

// separator 批次与序号之间的分隔符
const separator = "L-"

// ErrInvalidFormat 学号格式不符合 DDL-DDDD
var ErrInvalidFormat = errors.New("学号格式无效，应为 XXL-YYYY（如 23L-0632）")

var pattern = regexp.MustCompile(`^\d{2}L-\d{4}$`)

// Validate 校验学号是否为两位数字 + "L-" + 四位数字
func Validate(s string) bool {
	return pattern.MatchString(s)
}

// Normalize 去除首尾空白并转为大写，与录入界面的处理一致
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Split 将学号拆分为批次与序号：23L-0632 → ("23", "0632")
func Split(s string) (batch, roll string, err error) {
	if !Validate(s) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	batch, roll, _ = strings.Cut(s, separator)
	return batch, roll, nil
}

// ToEmail 由学号推导学校邮箱：23L-0632 → l230632@lhr.nu.edu.pk
func ToEmail(s string) (string, error) {
	batch, roll, err := Split(s)
	if err != nil {
		return "", err
	}
	return "l" + batch + roll + "@" + EmailDomain, nil
}
