package seedbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeEnviron(pairs ...string) HostEnviron {
	return func() []string { return pairs }
}

func TestBuild_InheritedCopiesEverything(t *testing.T) {
	b := New(ModeInherited, nil, fakeEnviron("HOME=/home/u", "SECRET_TOKEN=xyz"))
	got := b.Build()
	assert.Equal(t, "/home/u", got["HOME"])
	assert.Equal(t, "xyz", got["SECRET_TOKEN"])
}

func TestBuild_ClosedOnlySeedsAllowlisted(t *testing.T) {
	b := New(ModeClosed, nil, fakeEnviron("HOME=/home/u", "SECRET_TOKEN=xyz"))
	got := b.Build()
	assert.Equal(t, "/home/u", got["HOME"])
	_, present := got["SECRET_TOKEN"]
	assert.False(t, present)
}

func TestBuild_ClosedIncludesEnvoyOwnVars(t *testing.T) {
	b := New(ModeClosed, nil, fakeEnviron("ENVOY_ROOTS=/a:/b", "OTHER=1"))
	got := b.Build()
	assert.Equal(t, "/a:/b", got["ENVOY_ROOTS"])
	_, present := got["OTHER"]
	assert.False(t, present)
}

func TestBuild_ClosedIncludesExtraAllowlist(t *testing.T) {
	b := New(ModeClosed, []string{"MY_STUDIO_VAR"}, fakeEnviron("MY_STUDIO_VAR=studio", "OTHER=1"))
	got := b.Build()
	assert.Equal(t, "studio", got["MY_STUDIO_VAR"])
	_, present := got["OTHER"]
	assert.False(t, present)
}

func TestBuild_VariableOnlySeededWhenPresentInHost(t *testing.T) {
	b := New(ModeClosed, nil, fakeEnviron())
	got := b.Build()
	_, present := got["HOME"]
	assert.False(t, present)
}
