package viewer

// ArtifactsLoadedMsg carries freshly read run artifacts.
type ArtifactsLoadedMsg struct {
	Artifacts Artifacts
}

// LoadErrorMsg indicates the artifacts could not be read.
type LoadErrorMsg struct {
	Err error
}
