package models

// PlaybackSelection is the ephemeral per-view playback state: which
// server/episode pair is selected and, for HLS, which quality level.
// It is never persisted; reopening an item resets to defaults.
type PlaybackSelection struct {
	ServerIndex  int `json:"serverIndex"`
	EpisodeIndex int `json:"episodeIndex"`
	// CurrentLevel is the HLS quality index, -1 meaning automatic.
	CurrentLevel int `json:"currentLevel"`
}
