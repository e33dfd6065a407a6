package resource

// Resources of the education platform, as exposed by its REST gateway.
var (
	Announcements = Definition{
		Name: "announcement", Title: "Announcements", CollectionKey: "announcements", IDField: "announcement_id",
		SearchFields: []string{"title", "description"},
		Toggles:      []string{"is_active"},
		Required:     []string{"title", "description"},
		Endpoints:    endpoints("announcements", "announcement", IDInBody, IDInPath),
	}
	Books = Definition{
		Name: "book", Title: "Books", CollectionKey: "books", IDField: "book_id",
		SearchFields: []string{"title", "author", "isbn"},
		Required:     []string{"title", "author"},
		Endpoints:    endpoints("books", "book", IDInBody, IDInPath),
	}
	Courses = Definition{
		Name: "course", Title: "Courses", CollectionKey: "courses", IDField: "course_id",
		SearchFields: []string{"title", "category", "instructor_name"},
		Toggles:      []string{"published"},
		Required:     []string{"title"},
		Endpoints:    endpoints("courses", "course", IDInPath, IDInPath),
	}
	Enrollments = Definition{
		Name: "enrollment", Title: "Enrollments", CollectionKey: "enrollments", IDField: "enrollment_id",
		SearchFields: []string{"user_name", "course_title", "status"},
		Required:     []string{"user_id", "course_id"},
		Endpoints:    endpoints("enrollments", "enrollment", IDInBody, IDInBody),
	}
	Exams = Definition{
		Name: "exam", Title: "Exams", CollectionKey: "exams", IDField: "exam_id",
		SearchFields: []string{"title", "course_title"},
		Required:     []string{"title", "course_id"},
		Endpoints:    endpoints("exams", "exam", IDInPath, IDInPath),
	}
	Instructors = Definition{
		Name: "instructor", Title: "Instructors", CollectionKey: "instructors", IDField: "instructor_id",
		SearchFields: []string{"name", "email", "expertise"},
		Required:     []string{"name", "email"},
		Endpoints:    endpoints("instructors", "instructor", IDInBody, IDInPath),
	}
	LiveClasses = Definition{
		Name: "live_class", Title: "Live Classes", CollectionKey: "liveClasses", IDField: "live_class_id",
		SearchFields: []string{"title", "course_title", "instructor_name"},
		Required:     []string{"title", "course_id", "start_time"},
		Endpoints:    endpoints("live-classes", "live-class", IDInPath, IDInPath),
	}
	Notes = Definition{
		Name: "note", Title: "Notes", CollectionKey: "notes", IDField: "note_id",
		SearchFields: []string{"title", "course_title"},
		Required:     []string{"title", "course_id"},
		Endpoints:    endpoints("notes", "note", IDInBody, IDInBody),
	}
	Orders = Definition{
		Name: "order", Title: "Orders", CollectionKey: "orders", IDField: "order_id",
		SearchFields: []string{"order_id", "user_name", "status"},
		Required:     []string{"user_id", "amount"},
		Endpoints:    endpoints("orders", "order", IDInPath, IDInPath),
	}
	PromoCodes = Definition{
		Name: "promo_code", Title: "Promo Codes", CollectionKey: "promoCodes", IDField: "promo_code_id",
		SearchFields: []string{"code", "description"},
		Toggles:      []string{"active"},
		Required:     []string{"code", "discount"},
		Endpoints:    endpoints("promo-codes", "promo-code", IDInBody, IDInPath),
	}
	Users = Definition{
		Name: "user", Title: "Users", CollectionKey: "users", IDField: "user_id",
		SearchFields: []string{"name", "email", "phone"},
		Toggles:      []string{"blocked"},
		Required:     []string{"name", "email"},
		Endpoints:    endpoints("users", "user", IDInPath, IDInPath),
	}
)

// Platform returns a Registry holding every resource of the platform.
func Platform() *Registry {
	return NewRegistry(
		Announcements, Books, Courses, Enrollments, Exams, Instructors,
		LiveClasses, Notes, Orders, PromoCodes, Users,
	)
}

func endpoints(plural, singular string, update, del IDLocation) EndpointConfig {
	return EndpointConfig{
		ListPath:   "/" + plural,
		SearchPath: "/search/" + singular,
		ItemPath:   "/" + singular,
		UpdateID:   update,
		DeleteID:   del,
	}
}
