package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 合并配置
// - 如果 dst 和 src 都为 nil，返回错误
// - 如果 dst 为 nil，返回 src
// - 如果 src 为 nil，返回 dst
// - 如果都不为 nil，src 的非零值覆盖 dst 的值，返回合并后的 dst
//
// 各组件的 New 函数用它把用户传入的部分配置叠加到 DefaultConfig() 上。
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, ErrNilConfig
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	dstValue := reflect.ValueOf(dst).Elem()
	srcValue := reflect.ValueOf(src).Elem()

	if err := mergeValues(dstValue, srcValue); err != nil {
		return nil, err
	}

	return dst, nil
}

// mergeValues 递归合并两个 reflect.Value
func mergeValues(dst, src reflect.Value) error {
	// src 为零值时不覆盖
	if !src.IsValid() || isZeroValue(src) {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return mergeStruct(dst, src)
	case reflect.Map:
		return mergeMap(dst, src)
	case reflect.Slice:
		// 切片整体覆盖，不做元素级合并
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	case reflect.Ptr:
		return mergePointer(dst, src)
	default:
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// mergeStruct 逐字段合并结构体
func mergeStruct(dst, src reflect.Value) error {
	if src.Kind() != reflect.Struct {
		return fmt.Errorf("config: src is not a struct")
	}

	srcType := src.Type()
	for i := 0; i < src.NumField(); i++ {
		fieldType := srcType.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		dstField := dst.FieldByName(fieldType.Name)
		if !dstField.IsValid() || !dstField.CanSet() {
			continue
		}

		if err := mergeValues(dstField, src.Field(i)); err != nil {
			return fmt.Errorf("config: failed to merge field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// mergeMap 按键合并 map，已存在的键递归合并
func mergeMap(dst, src reflect.Value) error {
	if src.Kind() != reflect.Map {
		return fmt.Errorf("config: src is not a map")
	}

	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	iter := src.MapRange()
	for iter.Next() {
		key := iter.Key()
		srcValue := iter.Value()

		dstValue := dst.MapIndex(key)
		if dstValue.IsValid() {
			newValue := reflect.New(dst.Type().Elem()).Elem()
			newValue.Set(dstValue)

			if err := mergeValues(newValue, srcValue); err != nil {
				return err
			}

			dst.SetMapIndex(key, newValue)
		} else {
			dst.SetMapIndex(key, srcValue)
		}
	}

	return nil
}

// mergePointer 合并指针指向的值
func mergePointer(dst, src reflect.Value) error {
	if src.Kind() != reflect.Ptr {
		return fmt.Errorf("config: src is not a pointer")
	}

	if src.IsNil() {
		return nil
	}

	if dst.IsNil() {
		dst.Set(reflect.New(dst.Type().Elem()))
	}

	return mergeValues(dst.Elem(), src.Elem())
}

// isZeroValue 检查是否为零值
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		zero := reflect.Zero(v.Type()).Interface()
		return reflect.DeepEqual(v.Interface(), zero)
	default:
		return false
	}
}
