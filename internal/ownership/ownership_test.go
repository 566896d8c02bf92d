package ownership

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	owner := snowflake.ID(100)
	caller := snowflake.ID(100)
	stranger := snowflake.ID(200)

	assert.NoError(t, Check(owner, caller))
	assert.ErrorIs(t, Check(owner, stranger), ErrNotOwner)
	assert.ErrorIs(t, Check(stranger, caller), ErrNotOwner)
}
