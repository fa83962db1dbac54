// Package types defines the shared data structures for the questsim engine.
// This package contains only type definitions — no logic, no methods.
package types

import "time"

// Intent is the parsed representation of a creative action.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Effect is a single atomic state mutation instruction.
type Effect struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Event is one entry of the run's raw event log.
type Event struct {
	Seq     int            `json:"seq"`
	Type    string         `json:"type"`
	SceneID string         `json:"scene_id,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// NPCState is the lifecycle state of an NPC reference.
type NPCState string

const (
	NPCActive   NPCState = "active"
	NPCPassive  NPCState = "passive"
	NPCHidden   NPCState = "hidden"
	NPCDefeated NPCState = "defeated"
	NPCAbsent   NPCState = "absent"
)

// NPCReference is an NPC as listed by a scene.
type NPCReference struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	State       NPCState `json:"state"`
	Description string   `json:"description,omitempty"`
	Motivation  string   `json:"motivation,omitempty"`
	Hostile     bool     `json:"hostile,omitempty"`
	Required    bool     `json:"required,omitempty"`
}

// ChallengeType classifies how a challenge surfaces at the table.
type ChallengeType string

const (
	ChallengeActive  ChallengeType = "active"
	ChallengePassive ChallengeType = "passive"
	ChallengeHidden  ChallengeType = "hidden"
)

// Challenge is a skill check a GM may call for.
type Challenge struct {
	ID                    string        `json:"id"`
	Skill                 string        `json:"skill"`
	Difficulty            int           `json:"difficulty"`
	Type                  ChallengeType `json:"type"`
	FailureDamage         int           `json:"failure_damage,omitempty"`
	CriticalFailureDamage int           `json:"critical_failure_damage,omitempty"`
	GMDescription         string        `json:"gm_description,omitempty"`
	Combat                bool          `json:"combat,omitempty"`
	Required              bool          `json:"required,omitempty"`
}

// Trigger is a scripted beat the GM may fire.
type Trigger struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Text         string   `json:"text,omitempty"`
	Irreversible bool     `json:"irreversible,omitempty"`
	Damage       int      `json:"damage,omitempty"`
	Required     bool     `json:"required,omitempty"`
	Dramatic     bool     `json:"dramatic,omitempty"`
	Harmful      bool     `json:"harmful,omitempty"`
	Helpful      bool     `json:"helpful,omitempty"`
	Effects      []Effect `json:"effects,omitempty"`
}

// Exit is an explicit transition out of a scene.
type Exit struct {
	Target       string `json:"target"`
	Label        string `json:"label,omitempty"`
	RequiresFlag string `json:"requires_flag,omitempty"`
}

// Environment describes the physical surroundings of a scene.
type Environment struct {
	Description string   `json:"description,omitempty"`
	Lighting    string   `json:"lighting,omitempty"`
	Terrain     string   `json:"terrain,omitempty"`
	Features    []string `json:"features,omitempty"`
	Hazards     []string `json:"hazards,omitempty"`
}

// TopicDef is a single conversation-guide topic.
type TopicDef struct {
	Text     string   `json:"text"`
	Requires []string `json:"requires,omitempty"` // flags that must be set
}

// Conversation is a scene's conversation guide: npc id → topic key → topic.
type Conversation map[string]map[string]TopicDef

// Scene is one authored scene, canonicalized at the content boundary.
type Scene struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Location     string         `json:"location,omitempty"`
	Narrative    string         `json:"narrative,omitempty"`
	Type         string         `json:"type,omitempty"` // e.g. "ending"
	NPCs         []NPCReference `json:"npcs,omitempty"`
	Challenges   []Challenge    `json:"challenges,omitempty"`
	Triggers     []Trigger      `json:"triggers,omitempty"`
	Exits        []Exit         `json:"exits,omitempty"`
	NextScene    string         `json:"next_scene,omitempty"`
	Environment  *Environment   `json:"environment,omitempty"`
	Conversation Conversation   `json:"conversation,omitempty"`
	Markers      []string       `json:"markers,omitempty"` // "adventure_start", "adventure_end"
}

// NPCTracker is the run-scoped record of one NPC.
type NPCTracker struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	State            NPCState `json:"state"`
	LastSeenScene    string   `json:"last_seen_scene"`
	InteractionCount int      `json:"interaction_count"`
	Disposition      int      `json:"disposition"`
}

// PlayerState is the single run-scoped player record.
type PlayerState struct {
	Wounds       int            `json:"wounds"`
	WoundsMax    int            `json:"wounds_max"`
	Inventory    []string       `json:"inventory"`
	Flags        []string       `json:"flags"`
	SkillBonuses map[string]int `json:"skill_bonuses"`
}

// QuestionType classifies a player question.
type QuestionType string

const (
	QuestionNPCInfo        QuestionType = "npc_info"
	QuestionLocationDetail QuestionType = "location_detail"
	QuestionItemInfo       QuestionType = "item_info"
	QuestionSkillCheck     QuestionType = "skill_check"
	QuestionEnvironment    QuestionType = "environment"
	QuestionBackstory      QuestionType = "backstory"
	QuestionNextSteps      QuestionType = "next_steps"
	QuestionNPCMotivation  QuestionType = "npc_motivation"
)

// Traits is an archetype's personality vector. Each value is 0..100.
type Traits struct {
	RiskTolerance int `json:"risk_tolerance"`
	Curiosity     int `json:"curiosity"`
	Empathy       int `json:"empathy"`
	Suspicion     int `json:"suspicion"`
	Creativity    int `json:"creativity"`
	Patience      int `json:"patience"`
}

// Approach holds an archetype's categorical approach tags.
type Approach struct {
	Check  string `json:"check"`
	Combat string `json:"combat"`
	NPC    string `json:"npc"`
}

// PlayerArchetype is an immutable catalog entry.
type PlayerArchetype struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Motivation       string               `json:"motivation"`
	Traits           Traits               `json:"traits"`
	QuestionWeights  map[QuestionType]int `json:"question_weights"`
	ObservationFocus []string             `json:"observation_focus"`
	Approach         Approach             `json:"approach"`
}

// QuestionContext anchors a question to the scene it was asked in.
type QuestionContext struct {
	SceneID string `json:"scene_id"`
	NPCID   string `json:"npc_id,omitempty"`
	ItemID  string `json:"item_id,omitempty"`
	Topic   string `json:"topic,omitempty"`
}

// PlayerQuestion is a question a synthetic player wants answered.
type PlayerQuestion struct {
	Type    QuestionType    `json:"type"`
	Query   string          `json:"query"`
	Context QuestionContext `json:"context"`
}

// InformationLookup records one attempt to answer a question.
type InformationLookup struct {
	Question     PlayerQuestion `json:"question"`
	SearchPath   []string       `json:"search_path"`
	Found        bool           `json:"found"`
	FoundIn      string         `json:"found_in,omitempty"`
	Elapsed      time.Duration  `json:"elapsed"`
	Interactions int            `json:"interactions"`
}

// FeedbackType classifies an archetype critique.
type FeedbackType string

const (
	FeedbackMissingContent   FeedbackType = "missing_content"
	FeedbackUnclearDirection FeedbackType = "unclear_direction"
	FeedbackUnhandledAction  FeedbackType = "unhandled_action"
	FeedbackShallowNPC       FeedbackType = "shallow_npc"
	FeedbackPacingIssue      FeedbackType = "pacing_issue"
	FeedbackEmotionalGap     FeedbackType = "emotional_gap"
	FeedbackLogicGap         FeedbackType = "logic_gap"
	FeedbackImmersionBreak   FeedbackType = "immersion_break"
)

// Severity is the severity of a feedback item.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ValidationStatus is the GM validator's verdict on a feedback item.
type ValidationStatus string

const (
	StatusValidIssue         ValidationStatus = "valid_issue"
	StatusIntentionalMystery ValidationStatus = "intentional_mystery"
	StatusDelayedReveal      ValidationStatus = "delayed_reveal"
	StatusRedHerring         ValidationStatus = "red_herring"
	StatusPlayerChoice       ValidationStatus = "player_choice"
	StatusGMDiscretion       ValidationStatus = "gm_discretion"
	StatusOutOfScope         ValidationStatus = "out_of_scope"
	StatusFalsePositive      ValidationStatus = "false_positive"
)

// GMValidation is attached to feedback during the validation pass.
type GMValidation struct {
	Status      ValidationStatus `json:"status"`
	Reasoning   string           `json:"reasoning"`
	RevealScene string           `json:"reveal_scene,omitempty"`
	GMNotes     string           `json:"gm_notes,omitempty"`
}

// ArchetypeFeedback is one critique produced by an archetype.
type ArchetypeFeedback struct {
	SceneID     string        `json:"scene_id"`
	ArchetypeID string        `json:"archetype_id,omitempty"`
	Type        FeedbackType  `json:"type"`
	Description string        `json:"description"`
	Suggestion  string        `json:"suggestion"`
	Severity    Severity      `json:"severity"`
	Validation  *GMValidation `json:"validation,omitempty"`
}

// Secret is a piece of hidden adventure knowledge.
type Secret struct {
	ID               string   `json:"id"`
	Description      string   `json:"description"`
	RevealScene      string   `json:"reveal_scene,omitempty"`
	RelatedNPCs      []string `json:"related_npcs,omitempty"`
	QuestionPatterns []string `json:"question_patterns,omitempty"`
}

// Mystery is a question the adventure intentionally withholds.
type Mystery struct {
	Question     string `json:"question"`
	Answer       string `json:"answer,omitempty"`
	RevealScene  string `json:"reveal_scene,omitempty"`
	IsRedHerring bool   `json:"is_red_herring,omitempty"`
}

// NPCSecret is the public face and hidden truth of one NPC.
type NPCSecret struct {
	NPCID           string `json:"npc_id"`
	Public          string `json:"public"`
	Secret          string `json:"secret"`
	RevealCondition string `json:"reveal_condition,omitempty"`
}

// AdventureKnowledge is the GM-facing knowledge base for an adventure.
type AdventureKnowledge struct {
	Secrets    []Secret    `json:"secrets,omitempty"`
	Mysteries  []Mystery   `json:"mysteries,omitempty"`
	NPCSecrets []NPCSecret `json:"npc_secrets,omitempty"`
	Themes     []string    `json:"themes,omitempty"`
	Tone       string      `json:"tone,omitempty"`
}

// DiceMode selects the dice weighting policy.
type DiceMode string

const (
	DiceFair    DiceMode = "fair"
	DiceLucky   DiceMode = "lucky"
	DiceUnlucky DiceMode = "unlucky"
	DiceBlessed DiceMode = "blessed"
	DiceCursed  DiceMode = "cursed"
)

// GMBehavior selects the GM policy.
type GMBehavior string

const (
	GMThorough    GMBehavior = "thorough"
	GMEfficient   GMBehavior = "efficient"
	GMDramatic    GMBehavior = "dramatic"
	GMRandom      GMBehavior = "random"
	GMAdversarial GMBehavior = "adversarial"
	GMSupportive  GMBehavior = "supportive"
)

// PlayerBehavior selects the player policy.
type PlayerBehavior string

const (
	PlayerCautious   PlayerBehavior = "cautious"
	PlayerAggressive PlayerBehavior = "aggressive"
	PlayerThorough   PlayerBehavior = "thorough"
	PlayerSpeedrun   PlayerBehavior = "speedrun"
	PlayerRandom     PlayerBehavior = "random"
	PlayerOptimal    PlayerBehavior = "optimal"
)

// SimulationConfig configures one run.
type SimulationConfig struct {
	MaxScenes        int            `json:"max_scenes" yaml:"max_scenes"`
	RandomOrder      bool           `json:"random_order" yaml:"random_order"`
	DiceMode         DiceMode       `json:"dice_mode" yaml:"dice_mode"`
	GMBehavior       GMBehavior     `json:"gm_behavior" yaml:"gm_behavior"`
	PlayerBehavior   PlayerBehavior `json:"player_behavior" yaml:"player_behavior"`
	MaxTurnsPerScene int            `json:"max_turns_per_scene" yaml:"max_turns_per_scene"`
	PlayerMaxWounds  int            `json:"player_max_wounds" yaml:"player_max_wounds"`
	MaxSceneVisits   int            `json:"max_scene_visits,omitempty" yaml:"max_scene_visits"`
	Archetype        string         `json:"archetype,omitempty" yaml:"archetype"`
	Seed             int64          `json:"seed" yaml:"seed"`
}

// SceneAnalysis is the finalized metrics record of one processed scene.
type SceneAnalysis struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Completed         bool     `json:"completed"`
	WoundsTaken       int      `json:"wounds_taken"`
	ChecksAttempted   int      `json:"checks_attempted"`
	ChecksPassed      int      `json:"checks_passed"`
	TriggersAvailable int      `json:"triggers_available"`
	TriggersFired     int      `json:"triggers_fired"`
	NPCsPresent       int      `json:"npcs_present"`
	NPCsInteracted    int      `json:"npcs_interacted"`
	HasExitPath       bool     `json:"has_exit_path"`
	ExitsTaken        []string `json:"exits_taken,omitempty"`
	Turns             int      `json:"turns"`
	Issues            []string `json:"issues,omitempty"`
}

// IssueSeverity is the severity of a run-log issue.
type IssueSeverity string

const (
	IssueCritical IssueSeverity = "critical"
	IssueWarning  IssueSeverity = "warning"
	IssueInfo     IssueSeverity = "info"
)

// Issue is one entry of the run's issue log.
type Issue struct {
	Type     string        `json:"type"`
	Severity IssueSeverity `json:"severity"`
	SceneID  string        `json:"scene_id,omitempty"`
	Message  string        `json:"message"`
	Artifact string        `json:"artifact,omitempty"`
}

// RollResult is the outcome of one d20 check.
type RollResult struct {
	Roll     int    `json:"roll"`
	Bonus    int    `json:"bonus"`
	Total    int    `json:"total"`
	Target   int    `json:"target"`
	Success  bool   `json:"success"`
	Critical string `json:"critical,omitempty"` // "success", "failure" or ""
}

// DiceStats accumulates roll statistics across a run.
type DiceStats struct {
	Count             int     `json:"count"`
	Rolls             []int   `json:"rolls"`
	Mean              float64 `json:"mean"`
	CriticalSuccesses int     `json:"critical_successes"`
	CriticalFailures  int     `json:"critical_failures"`
	SuccessRate       float64 `json:"success_rate"` // raw rolls >= 10; approximation
}

// TerminationReason is the terminal state of a run.
type TerminationReason string

const (
	ReasonRunning              TerminationReason = "running"
	ReasonCompleted            TerminationReason = "completed"
	ReasonPlayerDeath          TerminationReason = "player_death"
	ReasonNoValidExits         TerminationReason = "no_valid_exits"
	ReasonSoftLock             TerminationReason = "soft_lock"
	ReasonMaxTurnsReached      TerminationReason = "max_turns_reached"
	ReasonInfiniteLoopDetected TerminationReason = "infinite_loop_detected"
)

// Termination records how a run ended.
type Termination struct {
	Reason     TerminationReason `json:"reason"`
	SceneID    string            `json:"scene_id,omitempty"`
	SceneIndex int               `json:"scene_index"`
	Message    string            `json:"message"`
}

// BreadcrumbStrength rates how well scenes point to their successors.
type BreadcrumbStrength string

const (
	BreadcrumbStrong BreadcrumbStrength = "strong"
	BreadcrumbMedium BreadcrumbStrength = "medium"
	BreadcrumbWeak   BreadcrumbStrength = "weak"
	BreadcrumbNone   BreadcrumbStrength = "none"
)

// Breadcrumbs summarizes the adjacent-pair analysis.
type Breadcrumbs struct {
	Strength    BreadcrumbStrength `json:"strength"`
	Pairs       int                `json:"pairs"`
	StrongPairs int                `json:"strong_pairs"`
	WeakPairs   int                `json:"weak_pairs"`
	Ratio       float64            `json:"ratio"`
}

// SceneReference is a textual mention of one scene's location in another.
type SceneReference struct {
	FromScene string `json:"from_scene"`
	ToScene   string `json:"to_scene"`
	Location  string `json:"location"`
}

// ContinuityIssue is an NPC state change that needs attention.
type ContinuityIssue struct {
	NPCID     string   `json:"npc_id"`
	FromScene string   `json:"from_scene"`
	ToScene   string   `json:"to_scene"`
	FromState NPCState `json:"from_state"`
	ToState   NPCState `json:"to_state"`
	Hard      bool     `json:"hard"`
	Message   string   `json:"message"`
}

// InformationGap is authored content missing GM-facing text.
type InformationGap struct {
	SceneID   string `json:"scene_id"`
	ElementID string `json:"element_id"`
	Kind      string `json:"kind"` // "hidden_challenge" or "irreversible_trigger"
	Message   string `json:"message"`
}

// Pacing is the action/social/exploration balance.
type Pacing struct {
	Action      float64 `json:"action"`
	Social      float64 `json:"social"`
	Exploration float64 `json:"exploration"`
	Score       int     `json:"score"`
}

// Recommendation is one derived improvement suggestion.
type Recommendation struct {
	Priority Severity `json:"priority"`
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Scenes   []string `json:"scenes,omitempty"`
}

// CoherenceAnalysis is the structural diagnostics of the scene graph.
type CoherenceAnalysis struct {
	Breadcrumbs        Breadcrumbs       `json:"breadcrumbs"`
	ForwardReferences  []SceneReference  `json:"forward_references,omitempty"`
	BackwardReferences []SceneReference  `json:"backward_references,omitempty"`
	NPCContinuity      []ContinuityIssue `json:"npc_continuity,omitempty"`
	InformationGaps    []InformationGap  `json:"information_gaps,omitempty"`
	Pacing             Pacing            `json:"pacing"`
	DeadEndScenes      []string          `json:"dead_end_scenes,omitempty"`
	LowPassRateScenes  []string          `json:"low_pass_rate_scenes,omitempty"`
	HighWoundScenes    []string          `json:"high_wound_scenes,omitempty"`
	Recommendations    []Recommendation  `json:"recommendations,omitempty"`
}

// Summary holds counters derivable from the report's own fields.
type Summary struct {
	TotalScenes       int `json:"total_scenes"`
	ScenesStarted     int `json:"scenes_started"`
	ScenesCompleted   int `json:"scenes_completed"`
	ChecksAttempted   int `json:"checks_attempted"`
	ChecksPassed      int `json:"checks_passed"`
	TriggersFired     int `json:"triggers_fired"`
	NPCsInteracted    int `json:"npcs_interacted"`
	WoundsTaken       int `json:"wounds_taken"`
	Deaths            int `json:"deaths"`
	CriticalIssues    int `json:"critical_issues"`
	Warnings          int `json:"warnings"`
	InfoIssues        int `json:"info_issues"`
	Rolls             int `json:"rolls"`
	CriticalSuccesses int `json:"critical_successes"`
	CriticalFailures  int `json:"critical_failures"`
	Lookups           int `json:"lookups"`
	LookupsFailed     int `json:"lookups_failed"`
}

// ArchetypeReport is the archetype's view of the run.
type ArchetypeReport struct {
	Archetype       PlayerArchetype     `json:"archetype"`
	QuestionsAsked  int                 `json:"questions_asked"`
	QuestionsFailed int                 `json:"questions_failed"`
	CreativeActions int                 `json:"creative_actions"`
	Unhandled       int                 `json:"unhandled"`
	Feedback        []ArchetypeFeedback `json:"feedback"`
}

// ValidationSummary tallies validated feedback by bucket.
type ValidationSummary struct {
	Total             int `json:"total"`
	ValidIssues       int `json:"valid_issues"`
	IntentionalDesign int `json:"intentional_design"`
	GMDiscretion      int `json:"gm_discretion"`
	FalsePositive     int `json:"false_positive"`
}

// GMValidatedReport partitions archetype feedback by GM verdict.
type GMValidatedReport struct {
	ValidIssues       []ArchetypeFeedback `json:"valid_issues"`
	IntentionalDesign []ArchetypeFeedback `json:"intentional_design"`
	GMDiscretion      []ArchetypeFeedback `json:"gm_discretion"`
	FalsePositives    []ArchetypeFeedback `json:"false_positives"`
	Summary           ValidationSummary   `json:"summary"`
}

// ReportMeta describes the run that produced a report.
type ReportMeta struct {
	RunID       string           `json:"run_id"`
	AdventureID string           `json:"adventure_id"`
	Config      SimulationConfig `json:"config"`
	Seed        int64            `json:"seed"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	TotalScenes int              `json:"total_scenes"`
	// RNGDraws is the number of random draws the run made.
	RNGDraws    int64            `json:"rng_draws"`
}

// SimulationReport is the terminal aggregate of one run.
type SimulationReport struct {
	Meta            ReportMeta          `json:"meta"`
	Termination     Termination         `json:"termination"`
	Player          PlayerState         `json:"player"`
	NPCs            []NPCTracker        `json:"npcs"`
	SceneAnalyses   []SceneAnalysis     `json:"scene_analyses"`
	DiceStats       DiceStats           `json:"dice_stats"`
	Coherence       CoherenceAnalysis   `json:"coherence"`
	Recommendations []Recommendation    `json:"recommendations"`
	Lookups         []InformationLookup `json:"lookups"`
	Events          []Event             `json:"events"`
	Issues          []Issue             `json:"issues"`
	Summary         Summary             `json:"summary"`
	Archetype       *ArchetypeReport    `json:"archetype,omitempty"`
	GMValidated     *GMValidatedReport  `json:"gm_validated,omitempty"`
}
