package workflow

import "github.com/talentsift/recommendd/internal/intent"

// RouteIntent maps a classified intent to the next stage. It is pure
// and total: every intent value routes somewhere, with the recommendation
// path as the default.
func RouteIntent(in intent.Intent) Stage {
	switch in {
	case intent.General:
		return StageGeneralAnswer
	case intent.OutOfContext:
		return StageOutOfContext
	default:
		return StageCheckURL
	}
}

// NeedsFetch reports whether the state carries a URL whose content
// should be fetched before enhancement.
func NeedsFetch(s *State) bool {
	return s.HasURL && len(s.ExtractedURLs) > 0
}

// EnhancementInput selects the text the enhancer should work on: the
// fetched source when extraction succeeded, the raw query otherwise.
// Fetch failure never blocks enhancement.
func EnhancementInput(s *State) string {
	if s.SourceExtractionOK && s.SourceText != "" {
		return s.SourceText
	}
	return s.Query
}
