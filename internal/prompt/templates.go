package prompt

const exampleDescriptionA = "The student's answer shows the summation of positive and negative integers, negative 6, 12, and negative 4, using a number line. With even-numbered intervals, the directions of the arrows illustrate three summation steps, 0 plus negative 6 equals negative 6, then negative 6 plus 12 equals negative 6, and 6 plus negative 4 equals 2."

const exampleDescriptionB = "This is a digital hand drawn image with a number line digitally given. \n\nA horizontal number line is drawn. \n\nThe minimum number on this number line is -10 and the maximum number is 10. Each consecutive whole number between -10 and 10 is plotted on the number line and indicated with a tick mark. \n\nThe number 2 is the answer and the arrows stop there. 2 is the sum of the problem which is -6 + 12 + -4. \n\nThe student found this answer by drawing lines on this number line. \n\nA green line begins from 0 and goes left to -6. This indicates the starting value of -6 from the game.  \n\nA black line begins from -6 and goes right to +5, which is an error. This should have gone to +6 to indicates the change of +12. An error was made here.\n\nA blue line begins from +5 and goes left to +2. This indicates the change of -3, but it should be a change of -4. 5 was the wrong starting point, but 2 is the answer."

const exampleDescriptionC = "This is a hand-drawn image on pre-printed paper. The question has been pre-printed on that paper. The student drew a right triangle. The base and the height of the right triangle are labeled leg, and the hypotenuse is labeled hypotenuse. Where the base and the height, which are both labeled leg, intersect, the student has drawn a little square in the corner to represent the 90-degree angle of that right triangle."

const exampleDescriptions = exampleDescriptionA + "\n\n\n" + exampleDescriptionB + "\n\n\n" + exampleDescriptionC

// descriptionPrompt takes the conversation JSON.
const descriptionPrompt = `You are an educational assistant who interprets math tutoring conversations.
Given a JSON-formatted conversation between a student and a teacher, describe what the student's problem-solving notes would look like.
Focus on the student, the tutor does not extend or edit the student's notes.

Imagine and describe visuals such as number lines, equations, diagrams, or written steps.
Use clear, specific language to explain what appears on a worksheet or whiteboard.
The result should be a normal text without headlines. You must not use any markup like Markdown or LaTeX.
Include numeric values, directional arrows, or other visual elements that correspond with the student's reasoning.
Focus only on the visual elements directly implied by the student's responses.
Try to keep the description neutral, objective, and to a reasonable length, ideally fairly concise.
You must not include the students name.
Do not add a summery at the end.

### Examples:
Keep the descriptions in a format and length similar to the following example descriptions:
` + exampleDescriptions + `

### Input:
%s
`

// qaPrompt takes the conversation JSON and the description.
const qaPrompt = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
Given a student's solution to a math problem, a teacher has provided a written description of it. 
Look at the given teacher's description and generate question-answer pairs that will help the teacher analyse the solution better.
This might help the tutor come up with a better response for the student.

### Dialogue History:
%s

### Input:
%s

### Response:
`

// tutorPrompt takes the optional pedagogical mapping and the conversation JSON.
const tutorPrompt = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
You are an experienced math teacher and you are going to respond to a student in a useful and caring way.
Gently nudge the student towards the correct answer using guiding questions as your response.
%s
### Full Conversation:
%s

`

const pedagogicalMapping = `Also consider the student's emotional state. 
Positive emotions include engagement and joy.
Neutral emotions include neutral and surprise.
Negative emotions include angriness, boredom, confusion, contempt, disgust, fear, frustration, and sadness.
If the student's last response indicates negative emotion, please motivate the student as a teacher.
If the student's last response indicates positive emotion or neutral emotion, please challenge the student as a teacher.

`

const mergedSentimentSection = `### Sentiment based on Student's Facial Expression and Text Input (out of Positive, Neutral, Negative):
%s

`

const qaPairsSection = `### Question-Answer Feedback Pairs :
%s

`

const responseTrailer = `### Tutors Response:
`
