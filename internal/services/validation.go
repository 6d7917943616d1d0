package services

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct 校验请求结构体上的validate标签
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
