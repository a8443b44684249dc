package catalog

// sections is the orientation checklist, in display order. Task
// identifiers are stable across releases; stored progress references
// them by ID, so renaming an ID orphans its rows.
var sections = []Section{
	{
		ID:          WelcomeSectionID,
		Title:       "Welcome to the Bootcamp",
		Description: "Hi, and welcome! Make sure you complete the following tasks before you leave. The team is here for you, feel free to ask them anything.",
		Collapsible: false,
		Tasks:       []Task{},
	},
	{
		ID:          "first-things-first",
		Title:       "First things first",
		Description: "Grab a coffee or tea from the snack bar, take a seat, and check the following boxes.",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:            "chrome",
				Title:         "Download Chrome on your laptop",
				Link:          "https://www.google.com/chrome",
				IsRecommended: true,
			},
			{
				ID:    "editor",
				Title: "Download a code editor on your laptop",
				Link:  "https://code.visualstudio.com/download",
			},
			{
				ID:    "git",
				Title: "Download git on your laptop and install it",
				Link:  "https://git-scm.com/downloads",
			},
			{
				ID:    "team-contact",
				Title: "Save the education team contact",
				Subtasks: []Subtask{
					{ID: "team-contact-number", Text: "Ask a mentor for the team number"},
				},
			},
		},
	},
	{
		ID:          "discord",
		Title:       "Discord",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:      "discord-download",
				Title:   "Download Discord on both your laptop and mobile",
				Link:    "https://discord.com/download",
				Warning: "DON'T CREATE A NEW SERVER! YOU WILL JOIN OURS",
			},
			{
				ID:       "discord-join",
				Title:    "Use the invite link to join our server",
				HelpText: "Once you join you should be able to see our channels",
			},
			{
				ID:          "discord-name",
				Title:       "Name yourself on Discord with your first name and family name",
				Description: "Please don't use nicknames",
				HelpText:    "Right-click your name in the member list, then Change Nickname",
			},
			{
				ID:          "discord-photo",
				Title:       "Upload a photo of yourself",
				Description: "It helps your colleagues and instructors recognize you in the first few days",
				IsBonus:     true,
				HelpText:    "User Settings, My Account, Change Avatar",
			},
		},
	},
	{
		ID:          "workspace-account",
		Title:       "Workspace Account",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:          "workspace-login",
				Title:       "Log in with your bootcamp account",
				Description: "Sent by admissions to your registered email. A mentor can help you with the process.",
			},
		},
	},
	{
		ID:          "github-notion",
		Title:       "GitHub & Notion",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:          "github-signup",
				Title:       "Sign up to GitHub",
				Link:        "https://github.com",
				Description: "Remember your GitHub username, we will ask you for it later",
			},
			{
				ID:    "notion-signup",
				Title: "Sign up to Notion",
				Link:  "https://www.notion.so/signup",
			},
			{
				ID:          "notion-wait",
				Title:       "Wait for the mentors to grant you access to Notion",
				Description: "Your mentor will add you to the workspace",
			},
			{
				ID:          "notion-verify",
				Title:       "Verify you can access the courses",
				Description: "Once the courses appear for you, you're good to go",
			},
		},
	},
	{
		ID:          "essentials",
		Title:       "Essentials",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:          "profile-form",
				Title:       "Fill the form to submit your GitHub account and picture",
				Description: "The picture is only used by the team to recognize you faster",
			},
			{
				ID:          "contract",
				Title:       "Read and sign the contract",
				Description: "You should have received it on your registered email",
				IsImportant: true,
			},
			{
				ID:    "networking",
				Title: "Meet your instructors and mentors, discuss the bootcamp, their work, and your goals",
			},
		},
	},
	{
		ID:          "read-at-home",
		Title:       "Read at home",
		Collapsible: true,
		Tasks: []Task{
			{
				ID:            "device-requirements",
				Title:         "Check your device requirements",
				Description:   "Make sure they match the bootcamp hardware specs",
				InternalRoute: "/device-requirements",
			},
			{
				ID:            "evaluation-metrics",
				Title:         "Check how the instruction team will evaluate your performance",
				Description:   "Review the trainee evaluation metrics",
				InternalRoute: "/evaluation-metrics",
			},
		},
	},
}
