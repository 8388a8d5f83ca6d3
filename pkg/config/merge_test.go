package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string
	Port     int
	Timeout  time.Duration
	Tags     []string
	Labels   map[string]string
	Nested   *nestedConfig
	Enabled  bool
	Replicas int
}

type nestedConfig struct {
	Host string
	Port int
}

func TestMergeConfig_NilHandling(t *testing.T) {
	// 两者都为 nil
	_, err := MergeConfig[testConfig](nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	// dst 为 nil 返回 src
	src := &testConfig{Name: "a"}
	got, err := MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)

	// src 为 nil 返回 dst
	dst := &testConfig{Name: "b"}
	got, err = MergeConfig(dst, nil)
	require.NoError(t, err)
	assert.Same(t, dst, got)
}

func TestMergeConfig_Override(t *testing.T) {
	dst := &testConfig{
		Name:     "default",
		Port:     50051,
		Timeout:  5 * time.Second,
		Tags:     []string{"a", "b"},
		Replicas: 3,
	}
	src := &testConfig{
		Name: "custom",
		Port: 9000,
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	// 非零值覆盖
	assert.Equal(t, "custom", got.Name)
	assert.Equal(t, 9000, got.Port)

	// 零值不覆盖
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, 3, got.Replicas)
}

func TestMergeConfig_Map(t *testing.T) {
	dst := &testConfig{
		Labels: map[string]string{"lane": "", "region": "cn"},
	}
	src := &testConfig{
		Labels: map[string]string{"lane": "gray"},
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Equal(t, "gray", got.Labels["lane"])
	assert.Equal(t, "cn", got.Labels["region"])
}

func TestMergeConfig_NestedPointer(t *testing.T) {
	dst := &testConfig{
		Nested: &nestedConfig{Host: "localhost", Port: 2379},
	}
	src := &testConfig{
		Nested: &nestedConfig{Host: "etcd-0"},
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Equal(t, "etcd-0", got.Nested.Host)
	assert.Equal(t, 2379, got.Nested.Port)

	// dst 中指针为 nil 时创建新实例
	dst = &testConfig{}
	got, err = MergeConfig(dst, src)
	require.NoError(t, err)
	require.NotNil(t, got.Nested)
	assert.Equal(t, "etcd-0", got.Nested.Host)
}

func TestMergeConfig_SliceOverride(t *testing.T) {
	dst := &testConfig{Tags: []string{"a", "b", "c"}}
	src := &testConfig{Tags: []string{"x"}}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	// 切片整体覆盖
	assert.Equal(t, []string{"x"}, got.Tags)
}
