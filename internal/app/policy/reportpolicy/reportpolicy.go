// Package reportpolicy provides authorization policies for student progress reports.
//
// Authorization rules:
//   - Admins can download any student's report
//   - Teachers can download reports for students assigned to them
//   - Parents can download reports for their linked children
//   - Students and visitors cannot download reports
package reportpolicy

import (
	"context"
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/system/authz"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CanViewStudentReport reports whether the current user may download the
// report of studentID. Returns an error only if a database operation fails.
func CanViewStudentReport(ctx context.Context, db *mongo.Database, r *http.Request, studentID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}

	var filter bson.M
	switch role {
	case models.RoleAdmin:
		filter = bson.M{"_id": studentID, "role": models.RoleStudent}
	case models.RoleTeacher:
		filter = bson.M{"_id": studentID, "role": models.RoleStudent, "teacher_id": uid}
	case models.RoleParent:
		filter = bson.M{"_id": uid, "role": models.RoleParent, "child_ids": studentID}
	default:
		return false, nil
	}

	err := db.Collection("users").FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
