package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radpro/doselog/utils"
)

func TestContainer(t *testing.T) {
	cfg, err := utils.ParseConfig([]byte("flash_size: 4K\npage_size: 1K"))
	require.Nil(t, err)
	c := NewContainer(cfg)

	inst, err := c.GetInstance()
	require.Nil(t, err)
	again, err := c.GetInstance()
	require.Nil(t, err)
	assert.Same(t, inst, again)

	assert.Same(t, inst.Loop, c.GetLoop())
	assert.Same(t, c.GetCommService(), c.GetCommService())
	assert.NotNil(t, c.GetCommServer())
}
