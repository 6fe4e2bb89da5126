package squad

// SkillPoints converts a member level into the skill points that member can
// distribute. Leaders get one more point than everyone else.
func SkillPoints(level int, leader bool) int {
	modifier := 7
	if leader {
		modifier = 8
	}
	return (level-1)*2 + modifier
}

// LevelMultiplier turns an environment level percentage into a check multiplier.
func LevelMultiplier(pct int) float64 {
	return 1 + float64(pct)/100
}
