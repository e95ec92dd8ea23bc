package filters

import "strings"

// LtGtEncode encodes literal '<' and '>' outside recognized tags.
type LtGtEncode struct{}

// Name implements pipeline.Step.
func (LtGtEncode) Name() string { return "LtGtEncode" }

// Transform implements pipeline.Step.
func (LtGtEncode) Transform(segment string) (string, error) {
	if !strings.ContainsAny(segment, "<>") {
		return segment, nil
	}

	return mapText(segment, ltgtReplacer.Replace), nil
}

// LtGtDoubleEncode encodes already encoded angle brackets a second time,
// for destinations that unescape once more downstream.
type LtGtDoubleEncode struct{}

var doubleEncodeReplacer = strings.NewReplacer("&lt;", "&amp;lt;", "&gt;", "&amp;gt;")

// Name implements pipeline.Step.
func (LtGtDoubleEncode) Name() string { return "LtGtDoubleEncode" }

// Transform implements pipeline.Step.
func (LtGtDoubleEncode) Transform(segment string) (string, error) {
	if !strings.Contains(segment, "&") {
		return segment, nil
	}

	return mapText(segment, doubleEncodeReplacer.Replace), nil
}
