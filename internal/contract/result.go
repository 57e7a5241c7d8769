package contract

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrFieldNotFound 返回值中没有对应名称的字段
var ErrFieldNotFound = errors.New("field not found")

// Result 是解码后的调用返回值或事件参数
// 单个 tuple 返回值会被展开成它的各个字段，既可按名称也可按下标访问
type Result struct {
	Method string
	names  []string
	values []interface{}
}

// DecodeOutput 按方法的输出定义解码调用返回的字节
func DecodeOutput(parsed abi.ABI, method string, out []byte) (*Result, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in abi", method)
	}
	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w", method, err)
	}
	return newResult(m, values)
}

func newResult(method abi.Method, values []interface{}) (*Result, error) {
	if len(method.Outputs) == 1 && method.Outputs[0].Type.T == abi.TupleTy && len(values) == 1 {
		return fromStruct(method.Name, values[0])
	}
	names := make([]string, len(method.Outputs))
	for i, out := range method.Outputs {
		names[i] = out.Name
	}
	return &Result{Method: method.Name, names: names, values: values}, nil
}

// fromStruct 读取 abi 生成的匿名结构体，字段的 json tag 即原始参数名
func fromStruct(method string, v interface{}) (*Result, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: expected tuple, got %T", method, v)
	}
	rt := rv.Type()
	r := &Result{Method: method}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := f.Tag.Get("json")
		if name == "" {
			name = f.Name
		}
		r.names = append(r.names, name)
		r.values = append(r.values, rv.Field(i).Interface())
	}
	return r, nil
}

func (r *Result) Len() int {
	return len(r.values)
}

// Field 按参数名查找，"_platformAddress" 与 "platformAddress" 视为同名
func (r *Result) Field(name string) (interface{}, error) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], nil
		}
	}
	want := abi.ToCamelCase(name)
	for i, n := range r.names {
		if n != "" && abi.ToCamelCase(n) == want {
			return r.values[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, r.Method, name)
}

// At 按下标取值
func (r *Result) At(i int) (interface{}, error) {
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("%w: %s[%d] out of %d values", ErrFieldNotFound, r.Method, i, len(r.values))
	}
	return r.values[i], nil
}

func (r *Result) Big(name string) (*big.Int, error) {
	v, err := r.Field(name)
	return r.toBig(name, v, err)
}

func (r *Result) BigAt(i int) (*big.Int, error) {
	v, err := r.At(i)
	return r.toBig(fmt.Sprint(i), v, err)
}

func (r *Result) Bool(name string) (bool, error) {
	v, err := r.Field(name)
	return as[bool](r, name, v, err)
}

func (r *Result) BoolAt(i int) (bool, error) {
	v, err := r.At(i)
	return as[bool](r, fmt.Sprint(i), v, err)
}

func (r *Result) String(name string) (string, error) {
	v, err := r.Field(name)
	return as[string](r, name, v, err)
}

func (r *Result) StringAt(i int) (string, error) {
	v, err := r.At(i)
	return as[string](r, fmt.Sprint(i), v, err)
}

func (r *Result) Address(name string) (common.Address, error) {
	v, err := r.Field(name)
	return as[common.Address](r, name, v, err)
}

func (r *Result) AddressAt(i int) (common.Address, error) {
	v, err := r.At(i)
	return as[common.Address](r, fmt.Sprint(i), v, err)
}

// Tuples 读取 tuple[] 字段，每个元素展开为一个 Result
func (r *Result) Tuples(name string) ([]*Result, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%s.%s: expected tuple array, got %T", r.Method, name, v)
	}
	out := make([]*Result, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := fromStruct(r.Method+"."+name, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *Result) toBig(key string, v interface{}, err error) (*big.Int, error) {
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	}
	return nil, fmt.Errorf("%s.%s: want integer, got %T", r.Method, key, v)
}

func as[T any](r *Result, key string, v interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s.%s: want %T, got %T", r.Method, key, zero, v)
	}
	return t, nil
}
