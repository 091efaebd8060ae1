package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// 标签对应的提示模板，第一个 %s 是字段路径，第二个是标签参数
var messages = map[string]string{
	"required": "%s 不能为空",
	"url":      "%s 不是合法的 URL",
	"gt":       "%s 必须大于 %s",
	"oneof":    "%s 必须是 [%s] 之一",
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct 按 validate 标签校验结构体
func Struct(s any) error {
	return engine().Struct(s)
}

// GetErrorMsg 将校验错误转换为可读的提示，多个字段用 "; " 连接
func GetErrorMsg(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "参数错误: " + err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		tmpl, ok := messages[fe.Tag()]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s 校验失败 (%s)", fe.Namespace(), fe.Tag()))
			continue
		}
		if strings.Count(tmpl, "%s") == 2 {
			msgs = append(msgs, fmt.Sprintf(tmpl, fe.Namespace(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf(tmpl, fe.Namespace()))
		}
	}
	return strings.Join(msgs, "; ")
}
