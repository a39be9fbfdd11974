package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCondition is returned for conditions without a problem.
var ErrInvalidCondition = errors.New("invalid condition")

// problemIndex[userID % 2][condition] selects the problem, so each user meets
// both problems across the two conditions.
var problemIndex = [][]int{
	{0, 1},
	{1, 0},
}

var problems = []string{
	`A circular flower bed has a radius of 3 meters. 
  You want to place a square stone path centered inside the circle, with its corners touching the edge.
  Question: What is the area of the stone path?`,

	`A coffee shop sells muffins in three flavors: 3 blueberry, 3 strawberry and 4 chocolate. 
  A customer randomly picks two muffins without looking. 
  Question: What is the probability that both muffins are of the same flavor?`,

	// not assigned to a condition yet
	`Sarah goes for a morning bike ride. Her speed (in km/h) at time t (in hours) is modeled by the function: 
  v(t)=4t for 0≤t≤2
  Question: How far does Sarah travel during the first 2 hours?`,
}

const greetingTemplate = `Hi there! 👋 I am your MathBuddy tutor. Let's work on a math problem together. Here's the problem:

{problem}

What do you think we should do first? Feel free to ask if you're unsure, I’m here to help!`

const generalGreeting = `Hi there! 👋 I am your MathBuddy tutor. Is there anything I can help you with?`

// ProblemStatement returns the opening tutor message of a session. A negative
// condition starts a free conversation.
func ProblemStatement(userID, condition int) (string, error) {
	if condition < 0 {
		return generalGreeting, nil
	}

	row := problemIndex[abs(userID)%len(problemIndex)]
	if condition >= len(row) {
		return "", fmt.Errorf("%w: %d", ErrInvalidCondition, condition)
	}
	return strings.Replace(greetingTemplate, "{problem}", problems[row[condition]], 1), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
