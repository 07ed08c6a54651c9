package repository

import "github.com/HieuTrannn/fibo-academic-api/internal/models"

// Per-aggregate descriptors. Registering the disable strategy here makes the
// soft-delete transition a compile-time contract per type.

var semesterDescriptor = Descriptor[models.Semester]{
	Table:   "semesters",
	Columns: []string{"id", "code", "term", "year", "status", "start_date", "end_date", "created_at"},
	SetID:   func(s *models.Semester, id string) { s.ID = id },
	Disable: func(s *models.Semester) { s.Status = models.StatusDisabled },
}

var classDescriptor = Descriptor[models.Class]{
	Table:   "classes",
	Columns: []string{"id", "semester_id", "code", "status", "lecturer_id", "created_at"},
	SetID:   func(c *models.Class, id string) { c.ID = id },
	Disable: func(c *models.Class) { c.Status = models.StatusDisabled },
}

var groupDescriptor = Descriptor[models.Group]{
	Table:   "groups",
	Columns: []string{"id", "class_id", "name", "description", "status", "created_at"},
	SetID:   func(g *models.Group, id string) { g.ID = id },
	Disable: func(g *models.Group) { g.Status = models.StatusDisabled },
}

var enrollmentDescriptor = Descriptor[models.ClassEnrollment]{
	Table:   "class_enrollments",
	Columns: []string{"id", "class_id", "group_id", "user_id", "status", "role_in_class", "created_at"},
	SetID:   func(e *models.ClassEnrollment, id string) { e.ID = id },
	Disable: func(e *models.ClassEnrollment) { e.Status = models.EnrollmentStatusDisabled },
}

var documentDescriptor = Descriptor[models.Document]{
	Table:   "documents",
	Columns: []string{"id", "class_id", "name", "link", "status", "created_at"},
	SetID:   func(d *models.Document, id string) { d.ID = id },
	Disable: func(d *models.Document) { d.Status = models.StatusDisabled },
}
