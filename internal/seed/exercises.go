package seed

import "athlos/fitness-tracker/internal/domain"

// Exercises is the default exercise library.
var Exercises = []domain.Exercise{
	{
		Name:          "Push-Up",
		Description:   "A bodyweight exercise that strengthens the chest, shoulders, and triceps.",
		Instructions:  "Keep body straight, lower chest to floor, push back up.",
		TargetMuscles: "Chest, Shoulders, Triceps",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Pull-Up",
		Description:   "Upper-body strength exercise performed by pulling up body weight.",
		Instructions:  "Hang from a bar with palms facing away, pull body up until chin passes bar, lower back down.",
		TargetMuscles: "Back, Biceps, Shoulders",
		Equipment:     "Pull-up Bar",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Squat",
		Description:   "A lower body exercise targeting quadriceps, glutes, and hamstrings.",
		Instructions:  "Stand with feet shoulder-width apart, bend knees and hips to lower body, return to standing.",
		TargetMuscles: "Quadriceps, Glutes, Hamstrings",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Deadlift",
		Description:   "A compound lift that builds strength in the posterior chain.",
		Instructions:  "Stand with feet under barbell, grip bar, keep back straight, and lift to standing.",
		TargetMuscles: "Back, Glutes, Hamstrings",
		Equipment:     "Barbell",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Bench Press",
		Description:   "A compound lift targeting the chest, shoulders, and triceps.",
		Instructions:  "Lie on bench, lower barbell to chest, press it back up until arms are straight.",
		TargetMuscles: "Chest, Shoulders, Triceps",
		Equipment:     "Barbell, Bench",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Overhead Press",
		Description:   "A shoulder press performed standing or seated.",
		Instructions:  "Press barbell or dumbbells overhead until arms are straight, lower under control.",
		TargetMuscles: "Shoulders, Triceps, Upper Chest",
		Equipment:     "Barbell or Dumbbells",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Bicep Curl",
		Description:   "Isolation movement for the biceps.",
		Instructions:  "Hold dumbbells at sides, curl weights toward shoulders, lower slowly.",
		TargetMuscles: "Biceps",
		Equipment:     "Dumbbells or Barbell",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Tricep Dip",
		Description:   "Bodyweight exercise for triceps and chest.",
		Instructions:  "Support body on parallel bars, lower until elbows bent at 90 degrees, push back up.",
		TargetMuscles: "Triceps, Chest, Shoulders",
		Equipment:     "Dip Bars",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Lunge",
		Description:   "A unilateral lower body exercise.",
		Instructions:  "Step forward with one leg, lower until both knees are bent at 90 degrees, push back up.",
		TargetMuscles: "Quadriceps, Glutes, Hamstrings",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Plank",
		Description:   "Core stability exercise.",
		Instructions:  "Hold body in straight line supported by forearms and toes, engage core.",
		TargetMuscles: "Core, Shoulders",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Mountain Climbers",
		Description:   "Cardio and core exercise performed in plank position.",
		Instructions:  "Start in push-up position, drive knees alternately toward chest at fast pace.",
		TargetMuscles: "Core, Shoulders, Legs",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Burpee",
		Description:   "Full-body conditioning exercise.",
		Instructions:  "From standing, drop into push-up, jump feet back in, and explosively jump upward.",
		TargetMuscles: "Full Body, Core, Legs",
		Equipment:     "None",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Crunch",
		Description:   "Abdominal isolation exercise.",
		Instructions:  "Lie on back with knees bent, lift shoulders off ground by contracting abs.",
		TargetMuscles: "Abdominals",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Russian Twist",
		Description:   "Rotational core exercise.",
		Instructions:  "Sit on floor with knees bent, lean back slightly, twist torso side to side.",
		TargetMuscles: "Obliques, Core",
		Equipment:     "Medicine Ball (optional)",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Leg Raise",
		Description:   "Lower abdominal exercise.",
		Instructions:  "Lie on back, lift legs together until vertical, lower slowly without touching ground.",
		TargetMuscles: "Lower Abdominals, Hip Flexors",
		Equipment:     "None",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Calf Raise",
		Description:   "Isolation exercise for calves.",
		Instructions:  "Stand upright, raise heels off floor, pause, lower slowly.",
		TargetMuscles: "Calves",
		Equipment:     "None or Barbell",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Row",
		Description:   "Pulling exercise for back muscles.",
		Instructions:  "Bend forward with flat back, pull barbell or dumbbells toward torso, lower slowly.",
		TargetMuscles: "Back, Biceps, Rear Shoulders",
		Equipment:     "Barbell or Dumbbells",
		Difficulty:    "Intermediate",
	},
	{
		Name:          "Shoulder Lateral Raise",
		Description:   "Isolation exercise for shoulders.",
		Instructions:  "Hold dumbbells at sides, lift arms out to shoulder height, lower slowly.",
		TargetMuscles: "Lateral Deltoids",
		Equipment:     "Dumbbells",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Bicycle Crunch",
		Description:   "Dynamic core exercise.",
		Instructions:  "Lie on back, bring opposite elbow to opposite knee in pedaling motion.",
		TargetMuscles: "Abdominals, Obliques",
		Equipment:     "None",
		Difficulty:    "Beginner",
	},
	{
		Name:          "Farmer’s Carry",
		Description:   "Grip and core stability exercise.",
		Instructions:  "Hold heavy dumbbells at sides, walk for distance while maintaining upright posture.",
		TargetMuscles: "Forearms, Grip, Core, Legs",
		Equipment:     "Dumbbells or Kettlebells",
		Difficulty:    "Intermediate",
	},
}
