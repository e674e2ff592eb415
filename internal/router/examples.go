package router

// taskExamples seed the embedding strategy: each category's centroid
// is the mean embedding of its example prompts, computed once at
// classifier construction.
var taskExamples = map[TaskType][]string{
	TaskCoding: {
		"Can you help me debug this Python code?",
		"Write a function to calculate Fibonacci numbers",
		"How do I implement a binary search tree in JavaScript?",
		"What's the best way to optimize this SQL query?",
		"Create a React component for a login form",
		"Help me understand this error in my code",
		"How do I use async/await in JavaScript?",
		"Write a unit test for this function",
		"Explain the difference between inheritance and composition",
		"How do I connect to a MongoDB database in Node.js?",
		"Refactor this code to follow clean code principles",
		"Create a CI/CD pipeline for my project",
		"Implement a RESTful API for user authentication",
		"How do I use Docker to containerize my application?",
		"Write a regex pattern to validate email addresses",
	},
	TaskReasoning: {
		"What are the pros and cons of remote work?",
		"Analyze the impact of AI on the job market",
		"Compare and contrast microservices vs monolithic architecture",
		"What are the ethical implications of facial recognition technology?",
		"Explain the concept of diminishing returns",
		"What factors should I consider when making this business decision?",
		"Analyze this research paper and explain its key findings",
		"What are the logical fallacies in this argument?",
		"How might climate change affect global food security?",
		"What are the trade-offs between privacy and security in technology?",
		"Evaluate different approaches to solving this complex problem",
		"What are the second-order effects of this policy change?",
		"Develop a framework for ethical decision-making in AI",
		"How would you approach this system design challenge?",
		"What are the implications of quantum computing for cryptography?",
	},
	TaskCreative: {
		"Write a short story about a time traveler",
		"Create a poem about the ocean",
		"Imagine a world where humans can fly",
		"Design a character for a fantasy novel",
		"Come up with a unique restaurant concept",
		"Write a dialogue between two historical figures",
		"Create a marketing slogan for a new eco-friendly product",
		"Describe an alien civilization unlike anything on Earth",
		"Write a song about overcoming adversity",
		"Design a game concept with unique mechanics",
		"Create an alternative history scenario",
		"Write a compelling elevator pitch for a startup",
		"Design a futuristic transportation system",
		"Create a new mythological creature and its backstory",
		"Write a scene that evokes a specific emotion",
	},
	TaskGeneral: {
		"What's the weather like today?",
		"How do I make pasta?",
		"Tell me about the history of Rome",
		"What movies are playing this weekend?",
		"How tall is Mount Everest?",
		"What's the capital of Australia?",
		"How do I change a flat tire?",
		"What are some good books to read?",
		"Tell me about quantum physics",
		"What's the difference between alligators and crocodiles?",
		"What are the symptoms of the common cold?",
		"How do I improve my public speaking skills?",
		"What's the best way to learn a new language?",
		"Tell me about the major events of World War II",
		"What are some healthy breakfast options?",
	},
}
