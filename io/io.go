package io

import (
	"os"

	u "github.com/mirovec/cauchyfec/util"
)

func ReadAll(filepath string) ([]byte, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, u.WrapErr("read "+filepath, err)
	}
	return data, nil
}

func WriteFile(filepath string, data []byte) error {
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return u.WrapErr("write "+filepath, err)
	}
	return nil
}
