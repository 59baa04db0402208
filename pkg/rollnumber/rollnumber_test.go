package rollnumber

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"23L-0632", true},
		{"01L-0000", true},
		{"23L-632", false},
		{"23-0632", false},
		{"23l-0632", false},
		{"123L-0632", false},
		{"23L-06321", false},
		{" 23L-0632", false},
		{"23L-0632\n", false},
		{"", false},
		{"ABL-0632", false},
	}
	for _, tt := range tests {
		if got := Validate(tt.in); got != tt.want {
			t.Errorf("Validate(%q)=%v，期望=%v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  23l-0632 "); got != "23L-0632" {
		t.Errorf("Normalize 结果=%q，期望=23L-0632", got)
	}
	if !Validate(Normalize("23l-0632")) {
		t.Error("小写输入规范化后应通过校验")
	}
}

func TestToEmail(t *testing.T) {
	got, err := ToEmail("23L-0632")
	if err != nil {
		t.Fatalf("ToEmail 应成功: %v", err)
	}
	if got != "l230632@lhr.nu.edu.pk" {
		t.Errorf("ToEmail=%q，期望=l230632@lhr.nu.edu.pk", got)
	}

	// 确定性：多次调用结果一致
	again, _ := ToEmail("23L-0632")
	if again != got {
		t.Errorf("ToEmail 应为确定性函数: %q != %q", again, got)
	}
}

func TestToEmail_InvalidFormat(t *testing.T) {
	for _, in := range []string{"23L-632", "23-0632", "", "xx"} {
		if _, err := ToEmail(in); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ToEmail(%q) 期望 ErrInvalidFormat，实际: %v", in, err)
		}
	}
}

func TestSplit(t *testing.T) {
	batch, roll, err := Split("21L-5123")
	if err != nil {
		t.Fatalf("Split 应成功: %v", err)
	}
	if batch != "21" || roll != "5123" {
		t.Errorf("Split=(%s,%s)，期望=(21,5123)", batch, roll)
	}
}
