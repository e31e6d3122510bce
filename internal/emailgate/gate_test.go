package emailgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Malformed(t *testing.T) {
	for _, e := range []string{
		"",
		"no-at-sign.com",
		"@nodomain.com",
		"trailing@",
		"two@@ats.com",
		"white space@domain.com",
		"user@nodot",
	} {
		v := Check(e)
		assert.False(t, v.Accepted, e)
		assert.Equal(t, ReasonMalformed, v.Reason, e)
	}
}

func TestCheck_ExactBlocklist(t *testing.T) {
	v := Check("privacypolicy@wmg.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonExactBlocklist, v.Reason)

	// Case-insensitive.
	v = Check("PrivacyPolicy@WMG.com")
	assert.Equal(t, ReasonExactBlocklist, v.Reason)
}

func TestCheck_DomainBlocklist(t *testing.T) {
	v := Check("someone@distrokid.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonBlockedDomain, v.Reason)
}

func TestCheck_PrefixBlocklist(t *testing.T) {
	for _, e := range []string{
		"noreply@sarahsmusic.com",
		"no-reply@sarahsmusic.com",
		"privacyteam@label.net",
		"legal@sarahsmusic.com",
	} {
		v := Check(e)
		require.False(t, v.Accepted, e)
		assert.Equal(t, ReasonBlockedPrefix, v.Reason, e)
	}
}

func TestCheck_GenericLocals_CorporateOnly(t *testing.T) {
	// Generic local on a corporate domain: rejected.
	v := Check("info@universalmusic.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonCorporateLocal, v.Reason)

	// Same local on an artist-owned domain: accepted.
	v = Check("info@sarahsmusic.com")
	assert.True(t, v.Accepted)

	v = Check("support@sarahsmusic.com")
	assert.True(t, v.Accepted)
}

func TestCheck_PlaceholderLocals(t *testing.T) {
	v := Check("test@sarahsmusic.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonPlaceholderLocal, v.Reason)
}

func TestCheck_DomainSubstring(t *testing.T) {
	v := Check("hello@bandmerchstore.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonDomainSubstring, v.Reason)
}

func TestCheck_LocalSubstring(t *testing.T) {
	v := Check("merchandise@sarahsmusic.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonLocalSubstring, v.Reason)

	v = Check("unsubscribe-list@sarahsmusic.com")
	require.False(t, v.Accepted)
	assert.Equal(t, ReasonLocalSubstring, v.Reason)
}

func TestCheck_Accepts(t *testing.T) {
	for _, e := range []string{
		"sarah@sarahsmusic.com",
		"booking@sarahsmusic.com",
		"mgmt@bigindieartist.co.uk",
		"SARAH@SarahsMusic.com",
	} {
		v := Check(e)
		assert.True(t, v.Accepted, e)
		assert.Empty(t, v.Reason, e)
	}
}

func TestCheck_Deterministic(t *testing.T) {
	for _, e := range []string{"sarah@sarahsmusic.com", "info@universalmusic.com", "bad"} {
		first := Check(e)
		second := Check(e)
		assert.Equal(t, first, second, e)
	}
}

func TestFilter_PreservesOrderAndReasons(t *testing.T) {
	in := []string{
		"sarah@sarahsmusic.com",
		"privacypolicy@wmg.com",
		"booking@sarahsmusic.com",
		"info@universalmusic.com",
	}

	valid, rejected := Filter(in)

	assert.Equal(t, []string{"sarah@sarahsmusic.com", "booking@sarahsmusic.com"}, valid)
	require.Len(t, rejected, 2)
	assert.Equal(t, "privacypolicy@wmg.com", rejected[0].Email)
	assert.Equal(t, ReasonExactBlocklist, rejected[0].Reason)
	assert.Equal(t, "info@universalmusic.com", rejected[1].Email)
	assert.Equal(t, ReasonCorporateLocal, rejected[1].Reason)
}

func TestFilter_Empty(t *testing.T) {
	valid, rejected := Filter(nil)
	assert.Empty(t, valid)
	assert.Empty(t, rejected)
}
