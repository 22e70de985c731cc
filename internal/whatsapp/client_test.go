package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
)

func TestParsePhoneJID(t *testing.T) {
	t.Run("bare phone number", func(t *testing.T) {
		jid, err := parsePhoneJID("972501234567")
		require.NoError(t, err)
		assert.Equal(t, "972501234567", jid.User)
		assert.Equal(t, types.DefaultUserServer, jid.Server)
	})

	t.Run("strips plus prefix and whitespace", func(t *testing.T) {
		jid, err := parsePhoneJID(" +972501234567 ")
		require.NoError(t, err)
		assert.Equal(t, "972501234567", jid.User)
	})

	t.Run("full jid passes through", func(t *testing.T) {
		jid, err := parsePhoneJID("972501234567@s.whatsapp.net")
		require.NoError(t, err)
		assert.Equal(t, "972501234567", jid.User)
		assert.Equal(t, "s.whatsapp.net", jid.Server)
	})

	t.Run("empty phone fails", func(t *testing.T) {
		_, err := parsePhoneJID("  ")
		assert.Error(t, err)
	})
}
