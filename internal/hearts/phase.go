// internal/hearts/phase.go
package hearts

// GamePhase is the per-round phase. The progression is linear with a single
// branch at the passing step: rounds whose number is a multiple of 4 skip
// passing entirely.
type GamePhase string

const (
	PhasePrestart      GamePhase = "prestart"
	PhaseWaitingDeal   GamePhase = "waiting_for_deal"
	PhasePassing       GamePhase = "passing"
	PhaseSkipPassing   GamePhase = "skip_passing"
	PhaseFirstTrick    GamePhase = "first_trick"
	PhaseNormalTrick   GamePhase = "normal_trick"
	PhaseFinalTrick    GamePhase = "final_trick"
	PhaseResult        GamePhase = "result"
	PhaseFinished      GamePhase = "finished"
	PhaseGameAborted   GamePhase = "aborted"
)

// gamePhaseTransitions is the legal transition table for GamePhase. Any phase
// may additionally transition to PhaseGameAborted.
var gamePhaseTransitions = map[GamePhase][]GamePhase{
	PhasePrestart:    {PhaseWaitingDeal},
	PhaseWaitingDeal: {PhasePassing, PhaseSkipPassing},
	PhasePassing:     {PhaseFirstTrick},
	PhaseSkipPassing: {PhaseFirstTrick},
	PhaseFirstTrick:  {PhaseNormalTrick},
	PhaseNormalTrick: {PhaseFinalTrick},
	PhaseFinalTrick:  {PhaseResult},
	PhaseResult:      {PhaseFinished},
}

// CanTransition reports whether from -> to is a legal GamePhase transition.
func (from GamePhase) CanTransition(to GamePhase) bool {
	if to == PhaseGameAborted {
		return from != PhaseFinished && from != PhaseGameAborted
	}
	for _, next := range gamePhaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (from GamePhase) Terminal() bool {
	return from == PhaseFinished || from == PhaseGameAborted
}

// InTrickPlay reports whether cards may currently be played.
func (from GamePhase) InTrickPlay() bool {
	return from == PhaseFirstTrick || from == PhaseNormalTrick || from == PhaseFinalTrick
}

// TrickPhase cycles within a round for every trick.
//
// TrickJustCompleted is a deliberate pause: the winner, points, and next
// leader are computed immediately when the fourth card lands, but the
// completed trick stays on the table until the next host poll acknowledges
// it, so clients get a chance to animate it before it is cleared.
type TrickPhase string

const (
	TrickReadyForFirstCard TrickPhase = "ready_for_first_card"
	TrickRunning           TrickPhase = "running"
	TrickJustCompleted     TrickPhase = "just_completed"
)

var trickPhaseTransitions = map[TrickPhase][]TrickPhase{
	TrickReadyForFirstCard: {TrickRunning},
	TrickRunning:           {TrickJustCompleted},
	TrickJustCompleted:     {TrickReadyForFirstCard},
}

// CanTransition reports whether from -> to is a legal TrickPhase transition.
func (from TrickPhase) CanTransition(to TrickPhase) bool {
	for _, next := range trickPhaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MatchPhase tracks the lifecycle of a match across its rounds.
type MatchPhase string

const (
	MatchSetup        MatchPhase = "setup"
	MatchReady        MatchPhase = "ready"
	MatchBeforeGames  MatchPhase = "before_games"
	MatchInProgress   MatchPhase = "in_progress"
	MatchBetweenGames MatchPhase = "between_games"
	MatchResultPhase  MatchPhase = "result"
	MatchFinished     MatchPhase = "finished"
	MatchAborted      MatchPhase = "aborted"
)

var matchPhaseTransitions = map[MatchPhase][]MatchPhase{
	MatchSetup:        {MatchReady},
	MatchReady:        {MatchBeforeGames},
	MatchBeforeGames:  {MatchInProgress},
	MatchInProgress:   {MatchBetweenGames, MatchResultPhase},
	MatchBetweenGames: {MatchInProgress},
	MatchResultPhase:  {MatchFinished},
}

// CanTransition reports whether from -> to is a legal MatchPhase transition.
// MatchAborted is reachable from every non-terminal phase.
func (from MatchPhase) CanTransition(to MatchPhase) bool {
	if to == MatchAborted {
		return !from.Terminal()
	}
	for _, next := range matchPhaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the match can no longer change phase.
func (from MatchPhase) Terminal() bool {
	return from == MatchFinished || from == MatchAborted
}
