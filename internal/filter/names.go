package filter

import (
	"strings"
)

// Lists holds substring filters applied to forward-slash paths.
type Lists struct {
	// Enabled turns every list on. When false nothing is filtered.
	Enabled bool
	// CfgBlacklist rejects configs; CfgWhitelist re-admits blacklisted ones.
	CfgBlacklist []string
	CfgWhitelist []string
	// TextureBlacklist replaces matching texture references with defaults.
	TextureBlacklist []string
}

// OldWorldPreset returns the lists that restrict a run to temperate
// assets: colonies, units, effects and ships are left alone.
func OldWorldPreset() Lists {
	return Lists{
		Enabled: true,
		CfgBlacklist: []string{
			"colony", "south_america", "polar", "africa", "/eoy21/",
			"/ui/", "/cutout_objects/", "/effects/", "/portraits/", "/units/",
			"/vehicle", "/cdlc05/", "/dlc03", "/dlc06",
			"3rd_party_04", "3rd_party_05", "3rd_party_09", "3rd_party_10", "3rd_party_13",
			"ship", "feedback", "fb", "quest_unit", "shared_ornaments",
			"quay_system", "jungle", "/props/clothing_elements/",
			"data/graphics/buildings/special/bridges", "/quest/objects/",
			"/campaign/burned_ruins/", "/campaign/fisher_village/", "/campaign/magistrate_shack/",
			"[Winter]",
		},
		CfgWhitelist: []string{
			"data/dlc03/graphics/buildings/special/electricity_02",
			"data/dlc06/graphics/buildings/public/monument_02",
			"data/dlc06/graphics/buildings/residence/residence_tier06",
			"shipyard",
		},
		TextureBlacklist: []string{"atlas", "quay_system", "bridges"},
	}
}

func slashed(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AcceptCfg reports whether a config path should be processed. Only
// ".cfg" files are accepted; with filters enabled a blacklisted path is
// rejected unless it is also whitelisted.
func (l Lists) AcceptCfg(path string) bool {
	path = slashed(path)
	if !strings.HasSuffix(path, ".cfg") {
		return false
	}
	if !l.Enabled || !containsAny(path, l.CfgBlacklist) {
		return true
	}
	return containsAny(path, l.CfgWhitelist)
}

// IsForbiddenTexture reports whether a texture path matches the texture
// blacklist, regardless of Enabled.
func (l Lists) IsForbiddenTexture(path string) bool {
	return containsAny(slashed(path), l.TextureBlacklist)
}
