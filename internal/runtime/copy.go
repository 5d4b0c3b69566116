package runtime

// Fixed assistant copy used by entry behaviors and fallbacks.
const (
	MsgCarouselUnavailable = "Carousel unavailable. Showing general results."
	MsgRecommendPlan       = "I recommend %s—built for how you live."
	MsgRecommendAsk        = "Want the details or ready to start?"
	MsgRecommendFallback   = "I’m having a moment. Let’s keep this simple."
	MsgOffRouteApology     = "I couldn’t pull that up—one sec while we try again."
	MsgBridgeBack          = "Sound fair if we finish your quick assessment so I can tailor this?"
	MsgWelcomeBack         = "Welcome back, %s. Pick up where we left off?"
)

// Quick reply labels emitted by the engine itself.
const (
	ReplySeePlanDetails   = "See Plan Details"
	ReplyStartMyPlan      = "Start My Plan"
	ReplyFinishAssessment = "Finish assessment"
	ReplyResume           = "Resume"
	ReplyStartOver        = "Start over"
)
